package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lease-analyzer/adapters/legacy"
	"lease-analyzer/adapters/storage"
	"lease-analyzer/core/engine"
	"lease-analyzer/core/tax"
	"lease-analyzer/core/types"
	"lease-analyzer/core/valuation"
	"lease-analyzer/internal/logging"
)

func TestMain(m *testing.M) {
	logging.NewNop()
	os.Exit(m.Run())
}

func clock() time.Time {
	return time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
}

type testServer struct {
	*Server
	reg   *prometheus.Registry
	store *storage.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := storage.NewMemoryStore()
	v := valuation.New(nil, valuation.WithClock(clock))
	eng := engine.NewEngine(v, tax.Default(), store, legacy.Default(), engine.EngineConfig{Clock: clock})
	reg := prometheus.NewRegistry()

	s := NewServer(Deps{
		Analyzer: eng,
		Analyses: store,
		Valuator: v,
		Taxes:    tax.Default(),
		Models:   legacy.Default(),
		Version:  "1.2.3",
		Registry: reg,
		Gatherer: reg,
		MaxBatch: 4,
		Clock:    clock,
	})
	return &testServer{Server: s, reg: reg, store: store}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

const civicBody = `{
	"carModel": "Honda Civic",
	"state": "CA",
	"upfrontPayment": 4000,
	"monthlyPayment": 300,
	"leaseDuration": 36,
	"buyoutPrice": 20000
}`

func TestAnalyze_OK(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/lease-analysis", civicBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	got := decode[map[string]any](t, w)
	assert.EqualValues(t, 1, got["id"])
	assert.EqualValues(t, 300, got["monthlyPayment"])
	assert.EqualValues(t, 10800, got["totalMonthlyPayments"])
	assert.EqualValues(t, 35708, got["totalCost"])
	assert.EqualValues(t, 22800, got["marketValue"])
	assert.EqualValues(t, -12908, got["savings"])
	assert.EqualValues(t, -56.6, got["savingsPercentage"])
	assert.Equal(t, "Very Poor", got["dealQuality"])
	assert.Equal(t, false, got["isGoodDeal"])

	taxInfo := got["taxInfo"].(map[string]any)
	assert.EqualValues(t, 21.75, taxInfo["monthlyTax"])
	assert.EqualValues(t, 783, taxInfo["totalTax"])
	assert.EqualValues(t, 125, taxInfo["stateFees"])
	assert.EqualValues(t, 0.0725, taxInfo["taxRate"])
	assert.Equal(t, "California", taxInfo["stateName"])

	vehicleInfo := got["vehicleInfo"].(map[string]any)
	assert.Equal(t, "Honda", vehicleInfo["make"])
	assert.Equal(t, "Civic", vehicleInfo["model"])
	assert.EqualValues(t, 2026, vehicleInfo["year"])
	assert.Equal(t, "Enhanced MSRP Estimation", vehicleInfo["source"])
	assert.Equal(t, "estimation", vehicleInfo["sourceCode"])
	assert.EqualValues(t, 24000, vehicleInfo["msrp"])

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.analyses.WithLabelValues("Very Poor", "estimation")))
}

func TestAnalyze_AcceptsNumericStrings(t *testing.T) {
	s := newTestServer(t)

	body := strings.Replace(civicBody, `"monthlyPayment": 300`, `"monthlyPayment": "300.00"`, 1)
	w := s.do(t, http.MethodPost, "/api/lease-analysis", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[LeaseAnalysisResponse](t, w)
	assert.Equal(t, "35708", got.TotalCost.String())
}

func TestAnalyze_ValidationError(t *testing.T) {
	s := newTestServer(t)

	body := `{"carModel": "", "state": "CA", "upfrontPayment": -1, "monthlyPayment": 300, "leaseDuration": 72, "buyoutPrice": 0}`
	w := s.do(t, http.MethodPost, "/api/lease-analysis", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	got := decode[ErrorResponse](t, w)
	assert.Equal(t, "Invalid input data", got.Message)

	var fields []string
	for _, e := range got.Errors {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"carModel", "upfrontPayment", "leaseDuration"}, fields)
	assert.Zero(t, s.store.Len())
}

func TestAnalyze_InvalidJSON(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/lease-analysis", `{"carModel":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_JSON", decode[ErrorResponse](t, w).Code)
}

type brokenAnalyzer struct{}

func (brokenAnalyzer) Analyze(context.Context, types.LeaseTerms) (*types.LeaseAnalysis, error) {
	return nil, errors.New("database is down")
}

func TestAnalyze_InternalError(t *testing.T) {
	s := NewServer(Deps{Analyzer: brokenAnalyzer{}, Taxes: tax.Default()})

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/lease-analysis", strings.NewReader(civicBody)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "database is down")
}

func TestAnalyze_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/lease-analysis", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestGetAnalysis(t *testing.T) {
	s := newTestServer(t)

	created := decode[LeaseAnalysisResponse](t, s.do(t, http.MethodPost, "/api/lease-analysis", civicBody))

	w := s.do(t, http.MethodGet, "/api/lease-analysis/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decode[LeaseAnalysisResponse](t, w))

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/lease-analysis/2", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/lease-analysis/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/lease-analysis/0", "").Code)
}

func TestVehicleValue(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/vehicle-value/2023%20BMW%20X5", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[VehicleValueResponse](t, w)
	assert.Equal(t, "Bmw", got.Make)
	assert.Equal(t, "X5", got.Model)
	assert.Equal(t, 2023, got.Year)
	assert.Equal(t, "58438", got.MSRP.String())
	assert.Equal(t, "2023 Bmw X5", got.Display)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/vehicle-value/Prius", "").Code)
}

func TestVehicleValues(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/vehicle-values", `{"vehicles": ["Honda Civic", "X", "2023 BMW X5"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[VehicleValuesResponse](t, w)
	require.Len(t, got.Results, 3)
	assert.Equal(t, "Honda Civic", got.Results[0].Input)
	require.NotNil(t, got.Results[0].Value)
	assert.Equal(t, "22800", got.Results[0].Value.MarketValue.String())
	assert.Nil(t, got.Results[1].Value)
	assert.Equal(t, "X5", got.Results[2].Value.Model)
}

func TestVehicleValues_Limits(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/vehicle-values", `{"vehicles": []}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		s.do(t, http.MethodPost, "/api/vehicle-values", `{"vehicles": ["a b","a b","a b","a b","a b"]}`).Code)
}

func TestCarModels(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/car-models", "")
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[[]string](t, w)
	assert.Len(t, got, 7)
	assert.Contains(t, got, "BMW X5")
}

func TestStateTax(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/state-tax/ca", "")
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[StateTaxResponse](t, w)
	assert.Equal(t, "CA", got.Code)
	assert.Equal(t, "California", got.Name)
	assert.Equal(t, "0.0725", got.LeaseTaxRate.String())
	assert.Equal(t, "125", got.AdditionalFees.String())

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/state-tax/ZZ", "").Code)
}

func TestStates(t *testing.T) {
	s := newTestServer(t)

	got := decode[[]StateTaxResponse](t, s.do(t, http.MethodGet, "/api/states", ""))
	require.Len(t, got, 51)
	assert.Equal(t, "Alabama", got[0].Name)
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(t)

	health := decode[map[string]string](t, s.do(t, http.MethodGet, "/api/health", ""))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "1.2.3", health["version"])
	assert.Equal(t, "2026-05-01T09:30:00Z", health["time"])

	version := decode[map[string]string](t, s.do(t, http.MethodGet, "/api/version", ""))
	assert.Equal(t, "1.2.3", version["version"])
}

func TestRequestIDPropagates(t *testing.T) {
	s := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/lease-analysis", civicBody)
	s.do(t, http.MethodGet, "/api/health", "")

	w := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "lease_analyses_total")
	assert.Contains(t, body, `route="GET /api/health"`)

	assert.Equal(t, 1, testutil.CollectAndCount(s.metrics.analyses))
}

func TestLeaseAnalysisRequest_Terms(t *testing.T) {
	var req LeaseAnalysisRequest
	require.NoError(t, json.NewDecoder(bytes.NewBufferString(civicBody)).Decode(&req))

	terms := req.Terms()
	assert.Equal(t, "Honda Civic", terms.CarModel)
	assert.Equal(t, 36, terms.LeaseDurationMonths)
	assert.Equal(t, "20000", terms.BuyoutPrice.String())
}
