package server_test

import (
	"bytes"
	"context"
	"errors"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/ultimatefreight/freightdesk/internal/server"
	"github.com/ultimatefreight/freightdesk/internal/service"
	"github.com/ultimatefreight/freightdesk/internal/store"
	"github.com/ultimatefreight/freightdesk/internal/telemetry"
	"github.com/ultimatefreight/freightdesk/pkg/pricing"
	"github.com/ultimatefreight/freightdesk/pkg/sink"
	"github.com/ultimatefreight/freightdesk/pkg/sink/mock"
	"go.uber.org/zap"
)

const adminPassword = "s3cret"

type testEnv struct {
	handler  http.Handler
	svc      *service.Service
	notifier *mock.Sink
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	return newTestServerWith(t, store.NewMemoryKV(), nil)
}

func newTestServerWith(t *testing.T, kv store.KV, remote service.RemoteSource) *testEnv {
	t.Helper()

	logger := otelzap.New(zap.NewNop())
	registry := sink.NewRegistry()
	registry.Register(mock.NewFailing("kafka", sink.ErrServiceUnavailable))
	notifier := mock.New("mailqueue")

	svc := service.New(service.Config{SinkTimeout: time.Second}, service.Deps{
		Configs:  store.NewConfigStore(kv, logger),
		Queries:  store.NewQueryLog(kv, logger),
		Sinks:    registry,
		Notifier: notifier,
		Remote:   remote,
		Metrics:  telemetry.NewMetricsWith(prometheus.NewRegistry()),
		Logger:   logger,
	})
	srv := server.New(server.Config{Port: 8080, AdminPassword: adminPassword}, svc, logger)
	return &testEnv{handler: srv.Handler(), svc: svc, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, path, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set(server.AdminPasswordHeader, adminPassword)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

const priceBody = `{
	"originCountry": "US", "originCity": "NYC",
	"destinationCountry": "GB", "destinationCity": "LON",
	"shipmentType": "air", "weight": 1,
	"dimensions": {"length": 10, "width": 10, "height": 10},
	"currency": "EUR", "urgent": false
}`

const quoteBody = `{
	"fullName": "Jane Doe", "email": "jane@example.com", "phone": "555-0100",
	"company": "ACME", "shipmentType": "air-freight", "origin": "Lagos",
	"destination": "London", "additionalInfo": "fragile", "terms": true
}`

func TestServer_Health(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/health", "", false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_CalculatePrice(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/calculate-price", priceBody, false)
	env.svc.Wait()

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, 635.25, resp["price"])
	assert.Equal(t, 584.43, resp["priceInSelectedCurrency"])
	assert.Equal(t, "EUR", resp["currency"])
	assert.Contains(t, resp, "breakdown")
	assert.Equal(t, map[string]interface{}{"origin": "US-NYC", "destination": "GB-LON"}, resp["shippingCodes"])
}

func TestServer_CalculatePrice_ValidationErrors(t *testing.T) {
	env := newTestServer(t)

	body := strings.Replace(priceBody, `"weight": 1`, `"weight": -3`, 1)
	body = strings.Replace(body, `"currency": "EUR"`, `"currency": "XYZ"`, 1)
	rec := env.do(t, http.MethodPost, "/api/calculate-price", body, false)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody(t, rec)
	errs, ok := resp["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs, "weight")
	assert.Contains(t, errs, "currency")
}

func TestServer_CalculatePrice_InvalidJSON(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/calculate-price", "invalid json", false)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "Invalid JSON")
}

func TestServer_Quote_CreatedEvenWhenSinksFail(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/quote", quoteBody, false)
	env.svc.Wait()

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, true, resp["notified"])
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "quote", data["type"])
	assert.True(t, strings.HasPrefix(data["id"].(string), "query_"))
	assert.Len(t, env.notifier.Events(), 1)
}

func TestServer_Quote_TermsRequired(t *testing.T) {
	env := newTestServer(t)

	body := strings.Replace(quoteBody, `"terms": true`, `"terms": false`, 1)
	rec := env.do(t, http.MethodPost, "/api/quote", body, false)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decodeBody(t, rec)["errors"].(map[string]interface{})
	assert.Equal(t, "must be accepted", errs["terms"])
}

func TestServer_Contact_NotNotified(t *testing.T) {
	env := newTestServer(t)
	env.notifier.Err = sink.ErrServiceUnavailable

	rec := env.do(t, http.MethodPost, "/api/contact",
		`{"name":"Ada","email":"ada@example.com","subject":"Rates","message":"Please send me your rate card."}`, false)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, false, resp["notified"])
	assert.Contains(t, resp["message"], "received but not emailed")
}

func TestServer_ReferenceData(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/locations", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var countries []map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&countries))
	assert.NotEmpty(t, countries)

	rec = env.do(t, http.MethodGet, "/api/currencies", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	var currencies []map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&currencies))
	assert.Len(t, currencies, 8)
}

func TestServer_Admin_Unauthorized(t *testing.T) {
	env := newTestServer(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/admin/queries"},
		{http.MethodDelete, "/api/admin/queries"},
		{http.MethodGet, "/api/admin/pricing-config"},
		{http.MethodPost, "/api/admin/pricing-config/reset"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			req := httptest.NewRequest(p.method, p.path, nil)
			req.Header.Set(server.AdminPasswordHeader, "wrong")
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestServer_Admin_QueriesLifecycle(t *testing.T) {
	env := newTestServer(t)

	env.do(t, http.MethodPost, "/api/quote", quoteBody, false)
	env.do(t, http.MethodPost, "/api/calculate-price", priceBody, false)
	env.svc.Wait()

	rec := env.do(t, http.MethodGet, "/api/admin/queries", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, "local", resp["source"])
	assert.Equal(t, 2.0, resp["count"])

	rec = env.do(t, http.MethodGet, "/api/admin/queries/export?format=csv", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "queries_export_")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	rows, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rec = env.do(t, http.MethodDelete, "/api/admin/queries", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/queries", "", true)
	assert.Equal(t, 0.0, decodeBody(t, rec)["count"])
}

func TestServer_Admin_ExportXLSX(t *testing.T) {
	env := newTestServer(t)
	env.do(t, http.MethodPost, "/api/quote", quoteBody, false)

	rec := env.do(t, http.MethodGet, "/api/admin/queries/export", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestServer_Admin_ExportBadFormat(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/admin/queries/export?format=pdf", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Admin_RemoteDisabled(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/admin/queries?source=remote", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type unreachableCollector struct{}

func (unreachableCollector) Fetch(context.Context) ([]sink.Event, error) {
	return nil, sink.ErrServiceUnavailable
}

type undeletableKV struct {
	*store.MemoryKV
}

func (undeletableKV) Delete(context.Context, string) error {
	return errors.New("disk full")
}

func TestServer_Admin_RemoteUnavailable(t *testing.T) {
	env := newTestServerWith(t, store.NewMemoryKV(), unreachableCollector{})

	for _, path := range []string{"/api/admin/queries?source=remote", "/api/admin/queries/export?source=remote"} {
		rec := env.do(t, http.MethodGet, path, "", true)
		assert.Equal(t, http.StatusBadGateway, rec.Code, path)
		assert.Equal(t, "Remote query storage is unavailable", decodeBody(t, rec)["message"], path)
	}
}

func TestServer_Admin_LocalFailureIgnoresSourceParam(t *testing.T) {
	env := newTestServerWith(t, undeletableKV{store.NewMemoryKV()}, unreachableCollector{})

	rec := env.do(t, http.MethodDelete, "/api/admin/queries?source=remote", "", true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, rec)["message"])
}

func TestServer_CalculatePrice_OversizedShipment(t *testing.T) {
	env := newTestServer(t)
	body := strings.Replace(priceBody, `"length": 10`, `"length": 1e200`, 1)

	rec := env.do(t, http.MethodPost, "/api/calculate-price", body, false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody(t, rec)
	assert.Contains(t, resp["errors"], "dimensions.length")
}

func TestServer_CalculatePrice_LowercaseCurrency(t *testing.T) {
	env := newTestServer(t)
	body := strings.Replace(priceBody, `"EUR"`, `"eur"`, 1)

	rec := env.do(t, http.MethodPost, "/api/calculate-price", body, false)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, "EUR", resp["currency"])
	assert.Equal(t, 584.43, resp["priceInSelectedCurrency"])
}

func TestServer_Admin_PricingConfig(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/admin/pricing-config", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg pricing.Config
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cfg))
	assert.Equal(t, pricing.DefaultConfig(), cfg)

	cfg.BaseFees[pricing.ShipmentAir] = 1000
	body, err := json.Marshal(cfg)
	require.NoError(t, err)
	rec = env.do(t, http.MethodPut, "/api/admin/pricing-config", string(body), true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/calculate-price", priceBody, false)
	require.Equal(t, http.StatusOK, rec.Code)
	breakdown := decodeBody(t, rec)["breakdown"].(map[string]interface{})
	assert.Equal(t, 1000.0, breakdown["baseFee"])

	rec = env.do(t, http.MethodPost, "/api/admin/pricing-config/reset", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cfg))
	assert.Equal(t, 550.0, cfg.BaseFees[pricing.ShipmentAir])
	env.svc.Wait()
}

func TestServer_Admin_PricingConfigRejected(t *testing.T) {
	env := newTestServer(t)

	cfg := pricing.DefaultConfig()
	cfg.HandlingFeePercent = -5
	delete(cfg.ExchangeRates, "USD")
	body, err := json.Marshal(cfg)
	require.NoError(t, err)

	rec := env.do(t, http.MethodPut, "/api/admin/pricing-config", string(body), true)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decodeBody(t, rec)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "handlingFeePercent")
	assert.Contains(t, errs, "exchangeRates.USD")
}
