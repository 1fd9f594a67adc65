package fixtures

import (
	"time"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
	"github.com/google/uuid"
)

var (
	TestStaffPrincipal = model.Principal{
		UserID: 1,
		Role:   model.RoleStaff,
	}

	TestClientPrincipal = model.Principal{
		UserID:         2,
		OrganizationID: 10,
		Role:           model.RoleClient,
	}

	TestOtherOrgPrincipal = model.Principal{
		UserID:         3,
		OrganizationID: 20,
		Role:           model.RoleClient,
	}
)

func NewTestCommunicationLog(orderID int64, externalID string) *model.CommunicationLog {
	log := &model.CommunicationLog{
		OrderID:        orderID,
		Type:           model.CommunicationTypeEmail,
		SenderID:       1,
		RecipientEmail: "director@westfieldband.org",
		Subject:        "Order update",
		Content:        "Your costume order moved to the next stage.",
		DeliveryStatus: model.DeliveryStatusSent,
		SentAt:         time.Now().UTC(),
	}
	if externalID != "" {
		log.ExternalMessageID = &externalID
	}
	return log
}

func NewTestDeliveryWebhook(externalID string, status model.DeliveryStatus) *model.DeliveryWebhook {
	return &model.DeliveryWebhook{
		EventID:           uuid.NewString(),
		Provider:          "sendgrid",
		ExternalMessageID: externalID,
		Status:            status,
		OccurredAt:        time.Now().UTC(),
	}
}

func NewTestExportRequest(format model.ExportFormat, organizationID int64) model.ExportRequest {
	return model.ExportRequest{
		Filter: model.CommunicationLogFilter{
			OrganizationID: &organizationID,
		},
		Format:         format,
		IncludeContent: true,
	}
}
