package model

import "time"

// SearchResult is one page of communication logs plus pagination metadata.
// StatusSummary counts statuses over the returned page only, for quick-glance
// UI breakdowns; TotalCount covers the full match set.
type SearchResult struct {
	Logs          []*CommunicationLog      `json:"logs"`
	TotalCount    int64                    `json:"total_count"`
	Limit         int                      `json:"limit"`
	Offset        int                      `json:"offset"`
	HasNextPage   bool                     `json:"has_next_page"`
	StatusSummary map[DeliveryStatus]int64 `json:"status_summary"`
}

// DeliveryStatusSummary aggregates an organization's communications over a
// date-bounded window, for compliance reporting.
type DeliveryStatusSummary struct {
	OrganizationID      int64                       `json:"organization_id"`
	From                time.Time                   `json:"from"`
	To                  time.Time                   `json:"to"`
	TotalCommunications int64                       `json:"total_communications"`
	StatusCounts        map[DeliveryStatus]int64    `json:"status_counts"`
	TypeCounts          map[CommunicationType]int64 `json:"type_counts"`
}

// DeliverySuccessRate returns delivered-equivalent statuses over the total,
// as a percentage. Delivered and read both count as successful delivery.
func (s *DeliveryStatusSummary) DeliverySuccessRate() float64 {
	if s.TotalCommunications == 0 {
		return 0
	}
	delivered := s.StatusCounts[DeliveryStatusDelivered] + s.StatusCounts[DeliveryStatusRead]
	return float64(delivered) / float64(s.TotalCommunications) * 100
}
