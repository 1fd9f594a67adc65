package model

import (
	"errors"
	"time"
)

// ExportFormat selects the artifact encoding for a communication log export.
type ExportFormat string

const (
	ExportFormatCSV   ExportFormat = "csv"
	ExportFormatExcel ExportFormat = "excel"
	ExportFormatPDF   ExportFormat = "pdf"
)

// ExportRequest is the input for a CSV/Excel export: the search criteria plus
// column include flags and an upper bound on exported rows.
type ExportRequest struct {
	Filter          CommunicationLogFilter
	Format          ExportFormat
	IncludeContent  bool
	IncludeMetadata bool
	MaxRecords      int
	DateFormat      string // defaults to RFC 3339
	// RequestedBy identifies the caller; background jobs carry it so that
	// polling and download stay scoped to the user who started the export.
	RequestedBy Principal
}

func (r ExportRequest) Validate() error {
	switch r.Format {
	case ExportFormatCSV, ExportFormatExcel:
	default:
		return errors.New("unsupported export format")
	}
	if r.MaxRecords < 0 {
		return errors.New("max_records cannot be negative")
	}
	return nil
}

// ComplianceReportRequest is the input for the PDF compliance report.
type ComplianceReportRequest struct {
	OrganizationID         int64
	From                   time.Time
	To                     time.Time
	IncludeFailureAnalysis bool
}

func (r ComplianceReportRequest) Validate() error {
	if r.OrganizationID == 0 {
		return errors.New("organization_id is required")
	}
	if !r.To.IsZero() && !r.From.IsZero() && r.To.Before(r.From) {
		return errors.New("date range end precedes start")
	}
	return nil
}

// JobStatus is the lifecycle state of a background export job.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ExportJob tracks one background export. Jobs live in process memory only
// and are lost on restart; completed artifacts are held until the expiry
// sweep removes them.
type ExportJob struct {
	ID            string       `json:"id"`
	Status        JobStatus    `json:"status"`
	Format        ExportFormat `json:"format"`
	RecordCount   int64        `json:"record_count"`
	EstimatedSize int64        `json:"estimated_size"`
	FileName      string       `json:"file_name,omitempty"`
	ContentType   string       `json:"content_type,omitempty"`
	Artifact      []byte       `json:"-"`
	Error         string       `json:"error,omitempty"`
	CreatedBy     int64        `json:"-"`
	CreatedAt     time.Time    `json:"created_at"`
	ExpiresAt     time.Time    `json:"expires_at"`
}

// AccessibleBy reports whether a principal may poll or download this job.
// Only the user who started the export sees it; staff see every job.
func (j *ExportJob) AccessibleBy(p Principal) bool {
	return p.IsStaff() || j.CreatedBy == p.UserID
}
