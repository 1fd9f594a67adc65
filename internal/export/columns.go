package export

import (
	"strconv"
	"time"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
)

// DefaultDateFormat is used for timestamps in CSV and Excel artifacts unless
// the request asks for something else.
const DefaultDateFormat = time.RFC3339

type column struct {
	header string
	value  func(l *model.CommunicationLog, dateFormat string) string
}

// ColumnSpec is the column set of one export, built once per request from the
// include flags. Header and row writers consume the same spec, so header and
// data column counts always match.
type ColumnSpec struct {
	columns []column
}

// BuildColumns assembles the column spec. Base columns are always present;
// content and metadata columns appear only when requested.
func BuildColumns(includeContent, includeMetadata bool) *ColumnSpec {
	cols := []column{
		{"Communication ID", func(l *model.CommunicationLog, _ string) string {
			return strconv.FormatInt(l.ID, 10)
		}},
		{"Order ID", func(l *model.CommunicationLog, _ string) string {
			return strconv.FormatInt(l.OrderID, 10)
		}},
		{"Communication Type", func(l *model.CommunicationLog, _ string) string {
			return string(l.Type)
		}},
		{"Delivery Status", func(l *model.CommunicationLog, _ string) string {
			return string(l.DeliveryStatus)
		}},
		{"Sent At", func(l *model.CommunicationLog, df string) string {
			return l.SentAt.Format(df)
		}},
		{"Sender ID", func(l *model.CommunicationLog, _ string) string {
			return strconv.FormatInt(l.SenderID, 10)
		}},
		{"Recipient", func(l *model.CommunicationLog, _ string) string {
			return l.Recipient()
		}},
		{"Subject", func(l *model.CommunicationLog, _ string) string {
			return l.Subject
		}},
		{"Delivered At", func(l *model.CommunicationLog, df string) string {
			return formatOptionalTime(l.DeliveredAt, df)
		}},
		{"Failure Reason", func(l *model.CommunicationLog, _ string) string {
			return l.FailureReason
		}},
	}

	if includeContent {
		cols = append(cols,
			column{"Content", func(l *model.CommunicationLog, _ string) string {
				return l.Content
			}},
			column{"Template Used", func(l *model.CommunicationLog, _ string) string {
				return l.TemplateUsed
			}},
		)
	}

	if includeMetadata {
		cols = append(cols,
			column{"External Message ID", func(l *model.CommunicationLog, _ string) string {
				if l.ExternalMessageID == nil {
					return ""
				}
				return *l.ExternalMessageID
			}},
			column{"Read At", func(l *model.CommunicationLog, df string) string {
				return formatOptionalTime(l.ReadAt, df)
			}},
			column{"Created At", func(l *model.CommunicationLog, df string) string {
				return l.CreatedAt.Format(df)
			}},
		)
	}

	return &ColumnSpec{columns: cols}
}

func (c *ColumnSpec) Headers() []string {
	headers := make([]string, len(c.columns))
	for i, col := range c.columns {
		headers[i] = col.header
	}
	return headers
}

func (c *ColumnSpec) Row(l *model.CommunicationLog, dateFormat string) []string {
	row := make([]string, len(c.columns))
	for i, col := range c.columns {
		row[i] = col.value(l, dateFormat)
	}
	return row
}

func (c *ColumnSpec) Len() int {
	return len(c.columns)
}

func formatOptionalTime(t *time.Time, dateFormat string) string {
	if t == nil {
		return ""
	}
	return t.Format(dateFormat)
}
