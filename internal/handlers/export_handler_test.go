package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/export"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
)

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Export(ctx context.Context, req model.ExportRequest) (*export.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.Result), args.Error(1)
}

func (m *MockExportService) GenerateComplianceReport(ctx context.Context, req model.ComplianceReportRequest) ([]byte, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockExportService) GetJobStatus(jobID string) *model.ExportJob {
	args := m.Called(jobID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*model.ExportJob)
}

type stubLimiter struct {
	allowed bool
}

func (l *stubLimiter) Allow(ctx context.Context, key string) (bool, error) { return l.allowed, nil }
func (l *stubLimiter) Limit() int64                                        { return 10 }

func TestExportHandler_ExportCSV(t *testing.T) {
	t.Run("small export returns file inline", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, &stubLimiter{allowed: true})

		body, _ := json.Marshal(exportRequestBody{IncludeContent: true})

		svc.On("Export", mock.Anything, mock.MatchedBy(func(req model.ExportRequest) bool {
			return req.Format == model.ExportFormatCSV &&
				req.IncludeContent &&
				req.Filter.OrganizationID != nil &&
				*req.Filter.OrganizationID == clientPrincipal.OrganizationID
		})).Return(&export.Result{
			Inline:      true,
			Data:        []byte("Communication ID,Order ID\n1,10\n"),
			ContentType: export.ContentTypeCSV,
			FileName:    "communication-logs.csv",
		}, nil)

		ctx := asPrincipal(setupTestContext("POST", "/communication-export/csv", body), clientPrincipal)
		handler.ExportCSV(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Equal(t, export.ContentTypeCSV, string(ctx.Response.Header.ContentType()))
		assert.Contains(t, string(ctx.Response.Header.Peek("Content-Disposition")), "attachment")
		assert.Contains(t, string(ctx.Response.Body()), "Communication ID")
		svc.AssertExpectations(t)
	})

	t.Run("large export returns 202 with job", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, &stubLimiter{allowed: true})

		body, _ := json.Marshal(exportRequestBody{})
		job := &model.ExportJob{ID: "job-1", Status: model.JobStatusProcessing, Format: model.ExportFormatCSV, RecordCount: 5000}
		svc.On("Export", mock.Anything, mock.Anything).Return(&export.Result{Job: job}, nil)

		ctx := asPrincipal(setupTestContext("POST", "/communication-export/csv", body), clientPrincipal)
		handler.ExportCSV(ctx)

		assert.Equal(t, 202, ctx.Response.StatusCode())

		var response model.ExportJob
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.Equal(t, "job-1", response.ID)
		assert.Equal(t, model.JobStatusProcessing, response.Status)
	})

	t.Run("rate limited export gets 429", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, &stubLimiter{allowed: false})

		body, _ := json.Marshal(exportRequestBody{})
		ctx := asPrincipal(setupTestContext("POST", "/communication-export/csv", body), clientPrincipal)
		handler.ExportCSV(ctx)

		assert.Equal(t, 429, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Export")
	})

	t.Run("client requesting another organization gets 403", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, &stubLimiter{allowed: true})

		otherOrg := int64(5)
		body, _ := json.Marshal(exportRequestBody{OrganizationID: &otherOrg})
		ctx := asPrincipal(setupTestContext("POST", "/communication-export/csv", body), clientPrincipal)
		handler.ExportCSV(ctx)

		assert.Equal(t, 403, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Export")
	})

	t.Run("negative max_records gets 400", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, &stubLimiter{allowed: true})

		body, _ := json.Marshal(exportRequestBody{MaxRecords: -1})
		ctx := asPrincipal(setupTestContext("POST", "/communication-export/csv", body), clientPrincipal)
		handler.ExportCSV(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})

	t.Run("render failure maps to 500", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, &stubLimiter{allowed: true})

		body, _ := json.Marshal(exportRequestBody{})
		svc.On("Export", mock.Anything, mock.Anything).Return(nil, errors.New("csv export failed: boom"))

		ctx := asPrincipal(setupTestContext("POST", "/communication-export/csv", body), clientPrincipal)
		handler.ExportCSV(ctx)

		assert.Equal(t, 500, ctx.Response.StatusCode())

		var response map[string]string
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.Contains(t, response["error"], "csv export failed")
	})
}

func TestExportHandler_ComplianceReport(t *testing.T) {
	t.Run("returns pdf bytes", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, &stubLimiter{allowed: true})

		body, _ := json.Marshal(complianceReportBody{OrganizationID: 77, IncludeFailureAnalysis: true})

		svc.On("GenerateComplianceReport", mock.Anything, mock.MatchedBy(func(req model.ComplianceReportRequest) bool {
			return req.OrganizationID == 77 && req.IncludeFailureAnalysis
		})).Return([]byte("%PDF-1.4 fake"), nil)

		ctx := asPrincipal(setupTestContext("POST", "/communication-export/compliance-report", body), clientPrincipal)
		handler.ComplianceReport(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Equal(t, export.ContentTypePDF, string(ctx.Response.Header.ContentType()))
		assert.True(t, len(ctx.Response.Body()) > 0)
		svc.AssertExpectations(t)
	})

	t.Run("defaults to caller organization", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, &stubLimiter{allowed: true})

		body, _ := json.Marshal(complianceReportBody{})
		svc.On("GenerateComplianceReport", mock.Anything, mock.MatchedBy(func(req model.ComplianceReportRequest) bool {
			return req.OrganizationID == clientPrincipal.OrganizationID
		})).Return([]byte("%PDF-"), nil)

		ctx := asPrincipal(setupTestContext("POST", "/communication-export/compliance-report", body), clientPrincipal)
		handler.ComplianceReport(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("cross organization report denied for client", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, &stubLimiter{allowed: true})

		body, _ := json.Marshal(complianceReportBody{OrganizationID: 5})
		ctx := asPrincipal(setupTestContext("POST", "/communication-export/compliance-report", body), clientPrincipal)
		handler.ComplianceReport(ctx)

		assert.Equal(t, 403, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "GenerateComplianceReport")
	})
}

func TestExportHandler_Jobs(t *testing.T) {
	t.Run("unknown job id gets 404", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, nil)

		svc.On("GetJobStatus", "nope").Return(nil)

		ctx := asPrincipal(setupTestContext("GET", "/communication-export/jobs/nope/status", nil), clientPrincipal)
		ctx.SetUserValue("jobId", "nope")
		handler.JobStatus(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})

	t.Run("status of processing job", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, nil)

		job := &model.ExportJob{ID: "j1", Status: model.JobStatusProcessing, CreatedBy: clientPrincipal.UserID}
		svc.On("GetJobStatus", "j1").Return(job)

		ctx := asPrincipal(setupTestContext("GET", "/communication-export/jobs/j1/status", nil), clientPrincipal)
		ctx.SetUserValue("jobId", "j1")
		handler.JobStatus(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response model.ExportJob
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.Equal(t, model.JobStatusProcessing, response.Status)
	})

	t.Run("download while processing gets 409", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, nil)

		svc.On("GetJobStatus", "j1").Return(&model.ExportJob{ID: "j1", Status: model.JobStatusProcessing, CreatedBy: clientPrincipal.UserID})

		ctx := asPrincipal(setupTestContext("GET", "/communication-export/jobs/j1/download", nil), clientPrincipal)
		ctx.SetUserValue("jobId", "j1")
		handler.JobDownload(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
	})

	t.Run("download of failed job gets 410", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, nil)

		svc.On("GetJobStatus", "j1").Return(&model.ExportJob{ID: "j1", Status: model.JobStatusFailed, Error: "boom", CreatedBy: clientPrincipal.UserID})

		ctx := asPrincipal(setupTestContext("GET", "/communication-export/jobs/j1/download", nil), clientPrincipal)
		ctx.SetUserValue("jobId", "j1")
		handler.JobDownload(ctx)

		assert.Equal(t, 410, ctx.Response.StatusCode())
	})

	t.Run("download of completed job returns artifact", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, nil)

		job := &model.ExportJob{
			ID:          "j1",
			Status:      model.JobStatusCompleted,
			ContentType: export.ContentTypeCSV,
			FileName:    "communication-logs.csv",
			Artifact:    []byte("header\nrow\n"),
			CreatedBy:   clientPrincipal.UserID,
		}
		svc.On("GetJobStatus", "j1").Return(job)

		ctx := asPrincipal(setupTestContext("GET", "/communication-export/jobs/j1/download", nil), clientPrincipal)
		ctx.SetUserValue("jobId", "j1")
		handler.JobDownload(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Equal(t, "header\nrow\n", string(ctx.Response.Body()))
		assert.Equal(t, export.ContentTypeCSV, string(ctx.Response.Header.ContentType()))
	})

	t.Run("another user's job reads as not found", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, nil)

		job := &model.ExportJob{
			ID:        "j1",
			Status:    model.JobStatusCompleted,
			Artifact:  []byte("secret\n"),
			CreatedBy: 999,
		}
		svc.On("GetJobStatus", "j1").Return(job)

		ctx := asPrincipal(setupTestContext("GET", "/communication-export/jobs/j1/status", nil), clientPrincipal)
		ctx.SetUserValue("jobId", "j1")
		handler.JobStatus(ctx)
		assert.Equal(t, 404, ctx.Response.StatusCode())

		ctx = asPrincipal(setupTestContext("GET", "/communication-export/jobs/j1/download", nil), clientPrincipal)
		ctx.SetUserValue("jobId", "j1")
		handler.JobDownload(ctx)
		assert.Equal(t, 404, ctx.Response.StatusCode())
		assert.NotContains(t, string(ctx.Response.Body()), "secret")
	})

	t.Run("staff can download any user's job", func(t *testing.T) {
		svc := new(MockExportService)
		handler := NewExportHandler(svc, nil)

		job := &model.ExportJob{
			ID:          "j1",
			Status:      model.JobStatusCompleted,
			ContentType: export.ContentTypeCSV,
			FileName:    "communication-logs.csv",
			Artifact:    []byte("header\nrow\n"),
			CreatedBy:   clientPrincipal.UserID,
		}
		svc.On("GetJobStatus", "j1").Return(job)

		ctx := asPrincipal(setupTestContext("GET", "/communication-export/jobs/j1/download", nil), staffPrincipal)
		ctx.SetUserValue("jobId", "j1")
		handler.JobDownload(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Equal(t, "header\nrow\n", string(ctx.Response.Body()))
	})
}
