package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/jmtruffa/finsim/finance"
	"github.com/jmtruffa/finsim/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockInstruments struct {
	mock.Mock
}

func (m *mockInstruments) LoadInstruments(ctx context.Context) ([]store.Instrument, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Instrument), args.Error(1)
}

func (m *mockInstruments) FindInstrument(ctx context.Context, ticker string) (store.Instrument, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(store.Instrument), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

var bond = store.Instrument{
	Ticker:      "BND28",
	Description: "5% bullet 2028",
	DayCount:    finance.Actual365,
	Cashflows: []finance.DatedCashFlow{
		{Date: day("2024-01-15"), Amount: 5},
		{Date: day("2026-01-15"), Amount: 5},
		{Date: day("2027-01-15"), Amount: 5},
		{Date: day("2028-01-15"), Amount: 105},
	},
}

func newTestAPI(instruments InstrumentStore) *WebAPI {
	return NewWebAPI(zerolog.Nop(), Config{
		Dependencies: Dependencies{Valuer: finance.NewValuer(), Instruments: instruments},
	})
}

func do(t *testing.T, api *WebAPI, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestAPI(nil), http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestNPV(t *testing.T) {
	rec, body := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/npv", gin.H{
		"cash_flows":   []float64{-250, 100, 100, 100, 100, 100},
		"rate_percent": 4,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 195.1822, body["value"], 1e-4)
	assert.Equal(t, "$195.18", body["formatted"])
}

func TestNPV_RateBelowMinusHundredIsRejectedByBinding(t *testing.T) {
	rec, body := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/npv", gin.H{
		"cash_flows":   []float64{-250, 100},
		"rate_percent": -100,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", body["error"])
}

func TestNPV_MissingCashFlows(t *testing.T) {
	rec, _ := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/npv", gin.H{"rate_percent": 4})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIRR(t *testing.T) {
	rec, body := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/irr", gin.H{
		"cash_flows": []float64{-250, 100, 100, 100, 100, 100},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.2864929, body["value"], 1e-6)
	assert.Equal(t, "28.65%", body["formatted"])
}

func TestIRR_NoSignChangeIsUnprocessable(t *testing.T) {
	rec, body := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/irr", gin.H{
		"cash_flows": []float64{100, 100},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "no_sign_change", body["error"])
	assert.Contains(t, body["message"], "Calculation Error")
}

func TestLoan(t *testing.T) {
	rec, body := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/loan", gin.H{
		"amount":       10000,
		"rate_percent": 7,
		"periods":      10,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 1423.775, body["payment"], 1e-3)
	assert.Equal(t, "$1,423.78", body["formatted_payment"])
	assert.Len(t, body["schedule"], 10)
}

func TestLoan_ZeroPeriods(t *testing.T) {
	rec, body := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/loan", gin.H{
		"amount":       10000,
		"rate_percent": 7,
		"periods":      0,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "division_by_zero", body["error"])
}

func TestLoan_TooManyPeriods(t *testing.T) {
	rec, body := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/loan", gin.H{
		"amount":       1000,
		"rate_percent": 5,
		"periods":      200000000,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", body["error"])
}

func TestLoan_PeriodBindingMatchesEngineLimit(t *testing.T) {
	rec, body := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/loan", gin.H{
		"amount":       1000,
		"rate_percent": 0.5,
		"periods":      finance.MaxSchedulePeriods,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["schedule"], finance.MaxSchedulePeriods)
}

func TestNPV_OverflowIsUnprocessable(t *testing.T) {
	ones := make([]float64, 200)
	for i := range ones {
		ones[i] = 1
	}

	rec, body := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/npv", gin.H{
		"cash_flows":   ones,
		"rate_percent": -99,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_input", body["error"])
	assert.Equal(t, "Calculation Error: result overflows.", body["message"])
}

func TestCompounding_OverflowIsUnprocessable(t *testing.T) {
	rec, body := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/compounding", gin.H{
		"principal":    1000,
		"rate_percent": 1000,
		"years":        100,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_input", body["error"])
}

func TestRetirement(t *testing.T) {
	rec, body := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/retirement", gin.H{
		"annual_withdrawal": 30000,
		"withdraw_years":    8,
		"deposit_years":     5,
		"rate_percent":      7,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "$40,832.08", body["formatted"])
}

func TestCompounding(t *testing.T) {
	rec, body := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/compounding", gin.H{
		"principal":    1000,
		"rate_percent": 5,
		"years":        10,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["comparison"], 6)
	continuous := body["continuous"].(map[string]interface{})
	assert.InDelta(t, 1648.7213, continuous["value"], 1e-4)
}

func TestXNPVAndXIRR(t *testing.T) {
	api := newTestAPI(nil)
	req := gin.H{
		"dates":        []string{"2008-01-01", "2008-03-01", "2008-10-30", "2009-02-15", "2009-04-01"},
		"cash_flows":   []float64{-10000, 2750, 4250, 3250, 2750},
		"rate_percent": 9,
	}

	rec, body := do(t, api, http.MethodPost, "/api/v1/xirr", req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.3733625, body["value"], 1e-6)

	rec, body = do(t, api, http.MethodPost, "/api/v1/xnpv", req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Greater(t, body["value"], 0.0)
}

func TestXNPV_BadDate(t *testing.T) {
	rec, _ := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/xnpv", gin.H{
		"dates":      []string{"01/02/2020"},
		"cash_flows": []float64{-100},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestXNPV_LengthMismatch(t *testing.T) {
	rec, body := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/xnpv", gin.H{
		"dates":      []string{"2020-01-01", "2021-01-01"},
		"cash_flows": []float64{-100},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_input", body["error"])
}

func TestXNPV_UnknownRoll(t *testing.T) {
	rec, _ := do(t, newTestAPI(nil), http.MethodPost, "/api/v1/xnpv", gin.H{
		"dates":      []string{"2020-01-01", "2021-01-01"},
		"cash_flows": []float64{-100, 110},
		"roll":       "sideways",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInstruments_WithoutStore(t *testing.T) {
	rec, body := do(t, newTestAPI(nil), http.MethodGet, "/api/v1/instruments", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", body["error"])
}

func TestListInstruments(t *testing.T) {
	instruments := new(mockInstruments)
	instruments.On("LoadInstruments", mock.Anything).Return([]store.Instrument{bond}, nil)

	rec, _ := do(t, newTestAPI(instruments), http.MethodGet, "/api/v1/instruments", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var list []instrumentSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "BND28", list[0].Ticker)
	assert.Equal(t, "ACT/365", list[0].DayCount)
	assert.Equal(t, 4, list[0].Cashflows)
	instruments.AssertExpectations(t)
}

func TestListInstruments_StoreFailure(t *testing.T) {
	instruments := new(mockInstruments)
	instruments.On("LoadInstruments", mock.Anything).Return(nil, errors.New("connection reset"))

	rec, body := do(t, newTestAPI(instruments), http.MethodGet, "/api/v1/instruments", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", body["error"])
}

func TestInstrumentPrice(t *testing.T) {
	instruments := new(mockInstruments)
	instruments.On("FindInstrument", mock.Anything, "BND28").Return(bond, nil)

	rec, body := do(t, newTestAPI(instruments), http.MethodGet, "/api/v1/instruments/BND28/price?rate=5&settlement=2025-01-15", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 100, body["value"], 1e-9)
	assert.Equal(t, "2025-01-15", body["settlement"])
	instruments.AssertExpectations(t)
}

func TestInstrumentYield(t *testing.T) {
	instruments := new(mockInstruments)
	instruments.On("FindInstrument", mock.Anything, "BND28").Return(bond, nil)

	rec, body := do(t, newTestAPI(instruments), http.MethodGet, "/api/v1/instruments/BND28/yield?price=100&settlement=2025-01-15", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.05, body["value"], 1e-7)
	assert.Equal(t, "5.00%", body["formatted"])
}

func TestInstrumentYield_BadPrice(t *testing.T) {
	instruments := new(mockInstruments)

	rec, _ := do(t, newTestAPI(instruments), http.MethodGet, "/api/v1/instruments/BND28/yield?price=abc", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	instruments.AssertNotCalled(t, "FindInstrument", mock.Anything, mock.Anything)
}

func TestInstrumentPrice_UnknownTicker(t *testing.T) {
	instruments := new(mockInstruments)
	instruments.On("FindInstrument", mock.Anything, "NOPE").
		Return(store.Instrument{}, store.ErrNotFound)

	rec, body := do(t, newTestAPI(instruments), http.MethodGet, "/api/v1/instruments/NOPE/price?rate=5", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["error"])
}

func TestInstrumentPrice_AfterMaturity(t *testing.T) {
	instruments := new(mockInstruments)
	instruments.On("FindInstrument", mock.Anything, "BND28").Return(bond, nil)

	rec, body := do(t, newTestAPI(instruments), http.MethodGet, "/api/v1/instruments/BND28/price?rate=5&settlement=2030-01-02", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_input", body["error"])
}

func TestCORSPreflight(t *testing.T) {
	api := NewWebAPI(zerolog.Nop(), Config{AllowedOrigins: []string{"https://example.com"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/npv", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	api.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
