/*
handlers_test.go - HTTP tests for the calculator API

Tests for:
- Info endpoints (root, regions, materials)
- Savings calculation: success, validation, material pricing, lookup failure
- PDF endpoints and result re-rendering
- Health checks, metrics and CORS
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/insulation-engine/engine"
	"github.com/warp/insulation-engine/materials"
	"github.com/warp/insulation-engine/observability"
	"github.com/warp/insulation-engine/report"
	"github.com/warp/insulation-engine/store/sqlite"
)

type testServer struct {
	handler *Handler
	router  http.Handler
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, src ConstantsSource) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	rn := report.NewRenderer(
		report.WithClock(clockwork.NewFakeClockAt(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))),
		report.WithReference(func(time.Time) string { return "TEST-REF" }),
	)
	h := NewHandler("Belgian Roof Insulation Calculator API", "1.0.0", src, rn, m, zerolog.Nop())
	router := NewRouter(h, RouterOptions{
		CORSOrigins: []string{"http://localhost:5173"},
		Gatherer:    reg,
	})
	return &testServer{handler: h, router: router, metrics: m}
}

func defaultSource() ConstantsSource {
	return NewStaticSource(engine.DefaultConstants(), materials.Defaults())
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func validRequest() map[string]any {
	return map[string]any{
		"location":             "Vlaams",
		"roof_area":            100,
		"current_r_value":      2,
		"proposed_r_value":     6,
		"heating_source":       "gas",
		"energy_price_per_kwh": 0.35,
	}
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// =============================================================================
// INFO
// =============================================================================

func TestRoot(t *testing.T) {
	s := newTestServer(t, defaultSource())

	rec := s.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[RootResponse](t, rec)
	assert.Equal(t, "Belgian Roof Insulation Calculator API", resp.Name)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.Contains(t, resp.Endpoints, "/calculate/savings")
}

func TestListRegions(t *testing.T) {
	s := newTestServer(t, defaultSource())

	rec := s.do(t, http.MethodGet, "/config/regions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[RegionsResponse](t, rec)
	assert.Equal(t, []RegionDTO{
		{Name: "Vlaams", DefaultEnergyPrice: 0.35, HeatingDegreeDays: 2800},
		{Name: "Waals", DefaultEnergyPrice: 0.33, HeatingDegreeDays: 3000},
		{Name: "Brussels-Hoofdstedelijk", DefaultEnergyPrice: 0.34, HeatingDegreeDays: 2850},
	}, resp.Regions)
	require.Len(t, resp.HeatingSources, 4)
	assert.Equal(t, HeatingSourceDTO{Value: "heat_pump", Label: "Heat Pump", CO2Intensity: 0.055}, resp.HeatingSources[3])
}

func TestListMaterials(t *testing.T) {
	s := newTestServer(t, defaultSource())

	rec := s.do(t, http.MethodGet, "/config/materials", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw struct {
		Materials []map[string]any `json:"materials"`
		RoofTypes []RoofTypeDTO    `json:"roof_types"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw.Materials, 4)
	assert.Equal(t, "glass_wool", raw.Materials[0]["id"])
	assert.InDelta(t, 171.43, raw.Materials[0]["thickness_cm"], 0.01)
	assert.Equal(t, []RoofTypeDTO{{"flat", 1}, {"pitched", 1.25}}, raw.RoofTypes)
}

// =============================================================================
// CALCULATE SAVINGS
// =============================================================================

func TestCalculateSavings_Success(t *testing.T) {
	// GIVEN: A 100 m2 Flemish roof going from R 2 to R 6 on gas
	// WHEN: Posting the calculation
	// THEN: The result record carries the engine's rounded figures
	s := newTestServer(t, defaultSource())

	rec := s.do(t, http.MethodPost, "/calculate/savings", validRequest())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decodeBody[engine.Result](t, rec)
	assert.Equal(t, engine.RegionFlanders, res.Location)
	assert.Equal(t, 0.5, res.CurrentUValue)
	assert.Equal(t, 0.1667, res.ProposedUValue)
	assert.Equal(t, 2240.0, res.AnnualEnergySavings)
	assert.Equal(t, 4500.0, res.InsulationUpgradeCost)
	assert.Equal(t, 5.74, res.PaybackPeriod.Value())
	assert.Equal(t, 2800.0, res.HeatingDegreeDays)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Calculations.WithLabelValues(observability.OutcomeSuccess)))
}

func TestCalculateSavings_ExplicitCostWinsOverMaterial(t *testing.T) {
	s := newTestServer(t, defaultSource())
	body := validRequest()
	body["insulation_upgrade_cost"] = 3000
	body["material_id"] = "wood_fiber"

	rec := s.do(t, http.MethodPost, "/calculate/savings", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3000.0, decodeBody[engine.Result](t, rec).InsulationUpgradeCost)
}

func TestCalculateSavings_MaterialPricing(t *testing.T) {
	// GIVEN: PIR boards on a 100 m2 pitched roof
	// WHEN: No explicit cost is given
	// THEN: Cost = 100 x 1.25 x 35
	s := newTestServer(t, defaultSource())
	body := validRequest()
	body["material_id"] = "pir_pur_foam"
	body["roof_type"] = "pitched"

	rec := s.do(t, http.MethodPost, "/calculate/savings", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4375.0, decodeBody[engine.Result](t, rec).InsulationUpgradeCost)
}

func TestCalculateSavings_ZeroCostIsAllowed(t *testing.T) {
	s := newTestServer(t, defaultSource())
	body := validRequest()
	body["insulation_upgrade_cost"] = 0

	rec := s.do(t, http.MethodPost, "/calculate/savings", body)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[engine.Result](t, rec)
	assert.Equal(t, 0.0, res.InsulationUpgradeCost)
	years, ok := res.PaybackPeriod.Years()
	assert.True(t, ok)
	assert.Equal(t, 0.0, years)
}

func TestCalculateSavings_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
		field  string
	}{
		{"unknown region", func(b map[string]any) { b["location"] = "Atlantis" }, "location"},
		{"missing area", func(b map[string]any) { delete(b, "roof_area") }, "roof_area"},
		{"zero area", func(b map[string]any) { b["roof_area"] = 0 }, "roof_area"},
		{"area too large", func(b map[string]any) { b["roof_area"] = 10001 }, "roof_area"},
		{"negative current R", func(b map[string]any) { b["current_r_value"] = -1 }, "current_r_value"},
		{"proposed not better", func(b map[string]any) { b["proposed_r_value"] = 2 }, "proposed_r_value"},
		{"proposed too high", func(b map[string]any) { b["proposed_r_value"] = 25 }, "proposed_r_value"},
		{"unknown heating", func(b map[string]any) { b["heating_source"] = "coal" }, "heating_source"},
		{"price too high", func(b map[string]any) { b["energy_price_per_kwh"] = 2.5 }, "energy_price_per_kwh"},
		{"negative cost", func(b map[string]any) { b["insulation_upgrade_cost"] = -1 }, "insulation_upgrade_cost"},
		{"unknown material", func(b map[string]any) { b["material_id"] = "straw" }, "material_id"},
		{"bad roof type", func(b map[string]any) { b["roof_type"] = "dome" }, "roof_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, defaultSource())
			body := validRequest()
			tt.mutate(body)

			rec := s.do(t, http.MethodPost, "/calculate/savings", body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			resp := decodeBody[validationResponse](t, rec)
			assert.Equal(t, "Invalid input", resp.Error)
			fields := make([]string, 0, len(resp.Fields))
			for _, f := range resp.Fields {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestCalculateSavings_ZeroCurrentRValueIsInvalidInput(t *testing.T) {
	// GIVEN: A request that passes range checks with current R = 0
	// WHEN: The engine computes U = 1/R
	// THEN: ErrInvalidInput surfaces as 400
	s := newTestServer(t, defaultSource())
	body := validRequest()
	body["current_r_value"] = 0

	rec := s.do(t, http.MethodPost, "/calculate/savings", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Detail, "current_r_value")
}

func TestCalculateSavings_MalformedJSON(t *testing.T) {
	s := newTestServer(t, defaultSource())

	rec := s.do(t, http.MethodPost, "/calculate/savings", "{oops")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeBody[ErrorResponse](t, rec).Error)
}

func TestCalculateSavings_LookupFailureIsServerError(t *testing.T) {
	// GIVEN: A constants table without Wallonia
	// WHEN: Calculating for Wallonia
	// THEN: 500, the fault is configuration not the request
	c := engine.DefaultConstants()
	delete(c.HeatingDegreeDays, engine.RegionWallonia)
	s := newTestServer(t, NewStaticSource(c, materials.Defaults()))

	body := validRequest()
	body["location"] = "Waals"
	rec := s.do(t, http.MethodPost, "/calculate/savings", body)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "Calculation error", resp.Error)
	assert.Contains(t, resp.Detail, "Waals")
}

type failingSource struct{ err error }

func (f failingSource) Constants(context.Context) (engine.Constants, error) {
	return engine.Constants{}, f.err
}

func (f failingSource) Materials(context.Context) ([]materials.Material, error) {
	return nil, f.err
}

func TestCalculateSavings_SourceFailure(t *testing.T) {
	s := newTestServer(t, failingSource{err: errors.New("database is locked")})

	rec := s.do(t, http.MethodPost, "/calculate/savings", validRequest())
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to load constants", decodeBody[ErrorResponse](t, rec).Error)
}

func TestCalculateSavings_SQLiteSource(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	_, err = store.Seed(ctx, engine.DefaultConstants(), materials.Defaults())
	require.NoError(t, err)
	require.NoError(t, store.SaveRegion(ctx, engine.RegionFlanders, 3000, 0.35))

	s := newTestServer(t, store)
	rec := s.do(t, http.MethodPost, "/calculate/savings", validRequest())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3000.0, decodeBody[engine.Result](t, rec).HeatingDegreeDays)
}

// =============================================================================
// PDF
// =============================================================================

func TestCalculatePDF(t *testing.T) {
	s := newTestServer(t, defaultSource())

	rec := s.do(t, http.MethodPost, "/calculate/pdf", validRequest())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=insulation_savings_report.pdf", rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Reports.WithLabelValues("pdf", observability.OutcomeSuccess)))
	// pdf is the only format the server renders
	assert.Equal(t, 1, testutil.CollectAndCount(s.metrics.Reports))
}

func TestCalculatePDF_ValidationError(t *testing.T) {
	s := newTestServer(t, defaultSource())
	body := validRequest()
	body["proposed_r_value"] = 1

	rec := s.do(t, http.MethodPost, "/calculate/pdf", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRenderReport_FromResultRecord(t *testing.T) {
	// GIVEN: A result record previously returned by /calculate/savings
	// WHEN: Posting it to /report/pdf
	// THEN: A PDF is returned without recalculating
	s := newTestServer(t, defaultSource())
	calc := s.do(t, http.MethodPost, "/calculate/savings", validRequest())
	require.Equal(t, http.StatusOK, calc.Code)

	rec := s.do(t, http.MethodPost, "/report/pdf", calc.Body.String())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestRenderReport_MissingFields(t *testing.T) {
	s := newTestServer(t, defaultSource())

	rec := s.do(t, http.MethodPost, "/report/pdf", `{"location": "Vlaams", "roof_area": 100}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "Malformed calculation result", resp.Error)
	assert.Contains(t, resp.Detail, "current_u_value")
	assert.Contains(t, resp.Detail, "payback_period")
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Reports.WithLabelValues("pdf", observability.OutcomeMalformed)))
}

// =============================================================================
// OPERATIONS
// =============================================================================

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, defaultSource())
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", nil).Code)

	broken := newTestServer(t, failingSource{err: errors.New("no such table: regions")})
	assert.Equal(t, http.StatusOK, broken.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, broken.do(t, http.MethodGet, "/readyz", nil).Code)
}

func TestReadyz_PingsSQLiteStore(t *testing.T) {
	// GIVEN: A server backed by a SQLite store
	// WHEN: The store goes away
	// THEN: /readyz turns 503 with the ping failure
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	_, err = store.Seed(context.Background(), engine.DefaultConstants(), materials.Defaults())
	require.NoError(t, err)

	s := newTestServer(t, store)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", nil).Code)

	require.NoError(t, store.Close())
	rec := s.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Constants store unreachable", decodeBody[ErrorResponse](t, rec).Error)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, defaultSource())
	s.do(t, http.MethodPost, "/calculate/savings", validRequest())

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `insulation_calculations_total{outcome="success"} 1`)
	assert.Contains(t, body, `insulation_http_requests_total{route="/calculate/savings",status="200"} 1`)
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestServer(t, defaultSource())

	req := httptest.NewRequest(http.MethodOptions, "/calculate/savings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/calculate/savings", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
