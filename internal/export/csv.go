package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
)

// RenderOptions are shared by the tabular renderers.
type RenderOptions struct {
	Columns    *ColumnSpec
	DateFormat string
}

func (o RenderOptions) dateFormat() string {
	if o.DateFormat == "" {
		return DefaultDateFormat
	}
	return o.DateFormat
}

// CSVRenderer writes logs as RFC 4180 CSV: one header row from the column
// spec, one data row per log, in search order.
type CSVRenderer struct{}

func (CSVRenderer) Render(logs []*model.CommunicationLog, opts RenderOptions) ([]byte, error) {
	if opts.Columns == nil {
		return nil, fmt.Errorf("column spec is required")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(opts.Columns.Headers()); err != nil {
		return nil, err
	}
	for _, log := range logs {
		if err := w.Write(opts.Columns.Row(log, opts.dateFormat())); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
