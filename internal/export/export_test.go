package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/ultimatefreight/freightdesk/internal/store"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var ts = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func testRecords() []store.QueryRecord {
	return []store.QueryRecord{
		{
			ID:        "query_1",
			Type:      store.QueryContact,
			Timestamp: ts,
			Data:      json.RawMessage(`{"name":"Ada","email":"ada@example.com","subject":"Hi","message":"Hello, \"world\"\nsecond line"}`),
		},
		{
			ID:        "query_2",
			Type:      store.QueryPriceCalculation,
			Timestamp: ts,
			Data: json.RawMessage(`{"originCountry":"CN","originCity":"SHA","destinationCountry":"US","destinationCity":"LAX",
				"shipmentType":"ocean","weight":12.5,"dimensions":{"length":10,"width":20,"height":30},
				"currency":"EUR","urgent":true,
				"result":{"priceInSelectedCurrency":584.43,"currency":"EUR","shippingCodes":{"origin":"CN-SHA","destination":"US-LAX"},
				"estimatedDelivery":{"days":10,"date":"2024-03-25"}}}`),
		},
	}
}

func TestFlatten(t *testing.T) {
	table := Flatten(testRecords())

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"ID", "Type", "Timestamp", "Name", "Email", "Subject", "Message"}, table.Columns[:7])
	assert.Contains(t, table.Columns, "Shipping Codes")

	contact := table.Rows[0]
	assert.Equal(t, "query_1", contact["ID"])
	assert.Equal(t, "2024-03-15 09:30:00", contact["Timestamp"])
	assert.Equal(t, "Ada", contact["Name"])

	calc := table.Rows[1]
	assert.Equal(t, "12.5", calc["Weight"])
	assert.Equal(t, "10x20x30", calc["Dimensions (LxWxH)"])
	assert.Equal(t, "Yes", calc["Urgent"])
	assert.Equal(t, "584.43", calc["Price"])
	assert.Equal(t, "CN-SHA → US-LAX", calc["Shipping Codes"])
	assert.Equal(t, "10", calc["Estimated Delivery"])
	assert.Empty(t, calc["Name"])
}

func TestFlatten_QuoteMissingFields(t *testing.T) {
	table := Flatten([]store.QueryRecord{{
		ID:   "query_3",
		Type: store.QueryQuote,
		Data: json.RawMessage(`{"fullName":"Jane"}`),
	}})

	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Jane", table.Rows[0]["Full Name"])
	assert.Equal(t, "", table.Rows[0]["Company"])
	assert.Contains(t, table.Columns, "Additional Info")
}

func TestCSV_Quoting(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, Flatten(testRecords())))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "ID", records[0][0])

	msgIdx := -1
	for i, c := range records[0] {
		if c == "Message" {
			msgIdx = i
		}
	}
	require.NotEqual(t, -1, msgIdx)
	assert.Equal(t, "Hello, \"world\"\nsecond line", records[1][msgIdx])
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSX(&buf, Flatten(testRecords())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "query_2", rows[2][0])
}

func TestExporter_Render(t *testing.T) {
	e := NewExporter(otelzap.New(zap.NewNop()))

	data, format, err := e.Render(context.Background(), FormatCSV, Flatten(testRecords()))
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)
	assert.True(t, bytes.HasPrefix(data, []byte("ID,Type,Timestamp")))

	data, format, err = e.Render(context.Background(), FormatXLSX, Flatten(testRecords()))
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, format)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")), "xlsx is a zip archive")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "queries_export_2024-03-15.xlsx", Filename(ts, FormatXLSX))
	assert.Equal(t, "queries_export_2024-03-15.csv", Filename(ts, FormatCSV))
}
