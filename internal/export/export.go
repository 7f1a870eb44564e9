// Package export renders the query log as a spreadsheet for the admin panel.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/ultimatefreight/freightdesk/internal/store"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// SheetName is the worksheet holding the exported rows.
const SheetName = "Queries"

const timestampLayout = "2006-01-02 15:04:05"

// ParseFormat maps a query parameter to a Format. Empty means XLSX.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx", "excel":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Filename returns the download name for an export produced at now.
func Filename(now time.Time, f Format) string {
	return fmt.Sprintf("queries_export_%s.%s", now.Format("2006-01-02"), f)
}

// Table is a flattened view of query records. Columns keep first-seen order.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

func (t *Table) add(row [][2]string) {
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		seen[c] = true
	}
	m := make(map[string]string, len(row))
	for _, kv := range row {
		if !seen[kv[0]] {
			t.Columns = append(t.Columns, kv[0])
			seen[kv[0]] = true
		}
		m[kv[0]] = kv[1]
	}
	t.Rows = append(t.Rows, m)
}

// Flatten converts records to rows. Every row carries ID, Type and Timestamp;
// the remaining columns depend on the record type.
func Flatten(records []store.QueryRecord) Table {
	var t Table
	for _, rec := range records {
		var data map[string]interface{}
		if err := json.Unmarshal(rec.Data, &data); err != nil {
			data = map[string]interface{}{}
		}
		d := fields(data)

		row := [][2]string{
			{"ID", rec.ID},
			{"Type", string(rec.Type)},
			{"Timestamp", rec.Timestamp.UTC().Format(timestampLayout)},
		}

		switch rec.Type {
		case store.QueryContact:
			row = append(row,
				[2]string{"Name", d.str("name")},
				[2]string{"Email", d.str("email")},
				[2]string{"Subject", d.str("subject")},
				[2]string{"Message", d.str("message")},
			)
		case store.QueryQuote:
			row = append(row,
				[2]string{"Full Name", d.str("fullName")},
				[2]string{"Email", d.str("email")},
				[2]string{"Phone", d.str("phone")},
				[2]string{"Company", d.str("company")},
				[2]string{"Shipment Type", d.str("shipmentType")},
				[2]string{"Origin", d.str("origin")},
				[2]string{"Destination", d.str("destination")},
				[2]string{"Additional Info", d.str("additionalInfo")},
			)
		case store.QueryPriceCalculation:
			dims := d.sub("dimensions")
			result := d.sub("result")
			codes := result.sub("shippingCodes")
			urgent := "No"
			if b, ok := data["urgent"].(bool); ok && b {
				urgent = "Yes"
			}
			row = append(row,
				[2]string{"Origin Country", d.str("originCountry")},
				[2]string{"Origin City", d.str("originCity")},
				[2]string{"Destination Country", d.str("destinationCountry")},
				[2]string{"Destination City", d.str("destinationCity")},
				[2]string{"Shipment Type", d.str("shipmentType")},
				[2]string{"Weight", d.str("weight")},
				[2]string{"Dimensions (LxWxH)", dims.str("length") + "x" + dims.str("width") + "x" + dims.str("height")},
				[2]string{"Currency", d.str("currency")},
				[2]string{"Urgent", urgent},
				[2]string{"Price", result.str("priceInSelectedCurrency")},
				[2]string{"Price Currency", result.str("currency")},
				[2]string{"Shipping Codes", codes.str("origin") + " → " + codes.str("destination")},
				[2]string{"Estimated Delivery", result.sub("estimatedDelivery").str("days")},
			)
		}
		t.add(row)
	}
	return t
}

type fields map[string]interface{}

func (f fields) str(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func (f fields) sub(key string) fields {
	if m, ok := f[key].(map[string]interface{}); ok {
		return m
	}
	return fields{}
}

// CSV writes t as RFC 4180 CSV with a header row.
func CSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		rec := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			rec[i] = row[c]
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// XLSX writes t as a workbook with a single "Queries" sheet.
func XLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("creating stream writer: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: bold}); err != nil {
		return err
	}

	for r, row := range t.Rows {
		cells := make([]interface{}, len(t.Columns))
		for i, c := range t.Columns {
			cells[i] = row[c]
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}
	return f.Write(w)
}

// Exporter renders tables, falling back to CSV when XLSX generation fails.
type Exporter struct {
	logger *otelzap.Logger
}

// NewExporter creates an exporter.
func NewExporter(logger *otelzap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Render returns t encoded in the requested format, and the format actually
// produced.
func (e *Exporter) Render(ctx context.Context, format Format, t Table) ([]byte, Format, error) {
	var buf bytes.Buffer
	if format == FormatXLSX {
		err := XLSX(&buf, t)
		if err == nil {
			return buf.Bytes(), FormatXLSX, nil
		}
		e.logger.Ctx(ctx).Warn("XLSX export failed, falling back to CSV", zap.Error(err))
		buf.Reset()
	}
	if err := CSV(&buf, t); err != nil {
		return nil, "", fmt.Errorf("writing csv: %w", err)
	}
	return buf.Bytes(), FormatCSV, nil
}
