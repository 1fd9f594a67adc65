package export

import (
	"context"
	"fmt"
	"time"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/logger"
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/prom"
	"github.com/google/uuid"
)

const (
	ContentTypeCSV   = "text/csv"
	ContentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF   = "application/pdf"
)

// AuditRepository is the slice of the audit data layer the exporter needs.
type AuditRepository interface {
	Search(ctx context.Context, f model.CommunicationLogFilter) ([]*model.CommunicationLog, int64, error)
	Count(ctx context.Context, f model.CommunicationLogFilter) (int64, error)
}

// SummaryProvider feeds the compliance report aggregates.
type SummaryProvider interface {
	GetDeliveryStatusSummary(ctx context.Context, organizationID int64, from, to time.Time) (*model.DeliveryStatusSummary, error)
}

// Dispatcher hands background render work to the shared worker pool.
type Dispatcher interface {
	Enqueue(job interface{})
}

type Config struct {
	// InlineThreshold is the largest match count rendered synchronously;
	// anything above it becomes a tracked background job.
	InlineThreshold int64
	// MaxRecords caps exported rows when the request does not.
	MaxRecords int
	// JobRetention is how long finished jobs stay pollable.
	JobRetention time.Duration
}

func DefaultConfig() Config {
	return Config{
		InlineThreshold: 1_000,
		MaxRecords:      50_000,
		JobRetention:    time.Hour,
	}
}

// Result is either an inline artifact or a job reference, never both.
type Result struct {
	Inline      bool
	Data        []byte
	ContentType string
	FileName    string
	Job         *model.ExportJob
}

type Service struct {
	repo       AuditRepository
	summaries  SummaryProvider
	jobs       JobStore
	dispatcher Dispatcher
	config     Config

	csv   CSVRenderer
	excel ExcelRenderer
	pdf   PDFRenderer
}

func NewService(repo AuditRepository, summaries SummaryProvider, jobs JobStore, dispatcher Dispatcher, config Config) *Service {
	if config.InlineThreshold <= 0 {
		config.InlineThreshold = DefaultConfig().InlineThreshold
	}
	if config.MaxRecords <= 0 {
		config.MaxRecords = DefaultConfig().MaxRecords
	}
	if config.JobRetention <= 0 {
		config.JobRetention = DefaultConfig().JobRetention
	}
	return &Service{
		repo:       repo,
		summaries:  summaries,
		jobs:       jobs,
		dispatcher: dispatcher,
		config:     config,
	}
}

// Export runs the estimate→decide→render flow for CSV and Excel requests.
// Small match sets come back inline; large ones return a processing job whose
// rendering continues on the worker pool regardless of the caller's context.
func (s *Service) Export(ctx context.Context, req model.ExportRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%s export failed: %w", req.Format, err)
	}

	// Probe for the match count without transferring rows.
	total, err := s.repo.Count(ctx, req.Filter)
	if err != nil {
		return nil, fmt.Errorf("%s export failed: %w", req.Format, err)
	}

	maxRecords := req.MaxRecords
	if maxRecords <= 0 || maxRecords > s.config.MaxRecords {
		maxRecords = s.config.MaxRecords
	}
	if total > int64(maxRecords) {
		total = int64(maxRecords)
	}

	if total <= s.config.InlineThreshold {
		data, err := s.render(ctx, req, int(total))
		if err != nil {
			prom.IncExportTotal(string(req.Format), "failed")
			return nil, err
		}
		prom.IncExportTotal(string(req.Format), "inline")
		return &Result{
			Inline:      true,
			Data:        data,
			ContentType: contentTypeFor(req.Format),
			FileName:    fileNameFor(req.Format),
		}, nil
	}

	now := time.Now().UTC()
	job := &model.ExportJob{
		ID:          uuid.NewString(),
		Status:      model.JobStatusProcessing,
		Format:      req.Format,
		RecordCount: total,
		CreatedBy:   req.RequestedBy.UserID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.config.JobRetention),
	}
	s.jobs.Put(job)

	recordCount := int(total)
	jobID := job.ID
	s.dispatcher.Enqueue(func() {
		// Jobs are not cancellable and outlive the originating request.
		data, err := s.render(context.Background(), req, recordCount)
		if err != nil {
			logger.Error("export job failed", "job_id", jobID, "format", req.Format, "error", err)
			prom.IncExportTotal(string(req.Format), "failed")
			s.jobs.Fail(jobID, err.Error())
			return
		}
		s.jobs.Complete(jobID, data, contentTypeFor(req.Format), fileNameFor(req.Format))
		prom.IncExportTotal(string(req.Format), "job")
		logger.Info("export job completed", "job_id", jobID, "format", req.Format, "bytes", len(data))
	})

	return &Result{Job: job}, nil
}

func (s *Service) render(ctx context.Context, req model.ExportRequest, recordCount int) ([]byte, error) {
	f := req.Filter
	f.Limit = recordCount
	f.Offset = 0

	logs, _, err := s.repo.Search(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s export failed: %w", req.Format, err)
	}

	opts := RenderOptions{
		Columns:    BuildColumns(req.IncludeContent, req.IncludeMetadata),
		DateFormat: req.DateFormat,
	}

	start := time.Now()
	var data []byte
	switch req.Format {
	case model.ExportFormatCSV:
		data, err = s.csv.Render(logs, opts)
	case model.ExportFormatExcel:
		data, err = s.excel.Render(logs, opts)
	default:
		err = fmt.Errorf("unsupported export format %q", req.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s export failed: %w", req.Format, err)
	}

	prom.ObserveExportRenderDuration(time.Since(start).Seconds(), string(req.Format))
	return data, nil
}

// GenerateComplianceReport renders the PDF compliance report synchronously;
// it aggregates counts rather than rows, so size is bounded.
func (s *Service) GenerateComplianceReport(ctx context.Context, req model.ComplianceReportRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("pdf report generation failed: %w", err)
	}

	summary, err := s.summaries.GetDeliveryStatusSummary(ctx, req.OrganizationID, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("pdf report generation failed: %w", err)
	}

	report := &ComplianceReport{Summary: summary}
	if req.IncludeFailureAnalysis {
		f := model.CommunicationLogFilter{
			OrganizationID: &req.OrganizationID,
			Statuses:       []model.DeliveryStatus{model.DeliveryStatusFailed, model.DeliveryStatusBounced},
			Limit:          200,
		}
		if !req.From.IsZero() {
			f.From = &req.From
		}
		if !req.To.IsZero() {
			f.To = &req.To
		}
		failures, _, err := s.repo.Search(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("pdf report generation failed: %w", err)
		}
		report.FailureAnalysis = failures
	}

	start := time.Now()
	data, err := s.pdf.Render(report)
	if err != nil {
		prom.IncExportTotal(string(model.ExportFormatPDF), "failed")
		return nil, fmt.Errorf("pdf report generation failed: %w", err)
	}

	prom.ObserveExportRenderDuration(time.Since(start).Seconds(), string(model.ExportFormatPDF))
	prom.IncExportTotal(string(model.ExportFormatPDF), "inline")
	return data, nil
}

// GetJobStatus returns nil for empty or unknown job ids, never an error.
func (s *Service) GetJobStatus(jobID string) *model.ExportJob {
	return s.jobs.Get(jobID)
}

// CleanupJobs sweeps expired jobs from the registry.
func (s *Service) CleanupJobs() int {
	return s.jobs.Cleanup(time.Now().UTC())
}

func contentTypeFor(format model.ExportFormat) string {
	switch format {
	case model.ExportFormatExcel:
		return ContentTypeExcel
	case model.ExportFormatPDF:
		return ContentTypePDF
	default:
		return ContentTypeCSV
	}
}

func fileNameFor(format model.ExportFormat) string {
	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case model.ExportFormatExcel:
		return "communication-logs-" + stamp + ".xlsx"
	case model.ExportFormatPDF:
		return "compliance-report-" + stamp + ".pdf"
	default:
		return "communication-logs-" + stamp + ".csv"
	}
}
