package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/events"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/protocols"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/modules/strategies"
	testutil "github.com/aristath/rebalancer/internal/testing"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, cleanup := testutil.NewTestDB(t)
	t.Cleanup(cleanup)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	service := rebalancing.NewService(
		db.Conn(),
		portfolio.NewRepository(db.Conn(), log),
		strategies.NewRepository(db.Conn(), log),
		events.NewManager(nil, log),
		nil,
		log,
	)
	service.SetClock(testutil.NewMockClock(time.Unix(1_700_000_000, 0)).Now)

	router := chi.NewRouter()
	NewHandler(service, log).RegisterRoutes(router)
	return router
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func do(t *testing.T, router http.Handler, method, path string, caller domain.Identity, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if caller != domain.ZeroIdentity {
		req.Header.Set(CallerHeader, caller.String())
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestPortfolioLifecycle(t *testing.T) {
	router := newTestRouter(t)
	manager := uuid.New()
	address := domain.PortfolioAddress(manager)
	base := "/portfolios/" + address.String()

	w, env := do(t, router, http.MethodPost, "/portfolios", manager, InitializePortfolioRequest{
		BaseThreshold:        15,
		MinRebalanceInterval: 3600,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p portfolio.Portfolio
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, address, p.Address)

	strategyID := uuid.New()
	lending := testutil.NewStableLendingFixture()
	w, env = do(t, router, http.MethodPost, base+"/strategies", manager, RegisterStrategyRequest{
		StrategyID:     strategyID,
		Protocol:       protocols.Describe(lending),
		InitialBalance: 1_000_000_000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Stable Lending", created["protocol_name"])

	w, _ = do(t, router, http.MethodPut, base+"/strategies/"+strategyID.String()+"/performance", manager, UpdatePerformanceRequest{
		YieldRateBps:  1000,
		VolatilityBps: 2000,
		Balance:       1_000_000_000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = do(t, router, http.MethodPost, base+"/ranking", manager, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ranking map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &ranking))
	assert.Contains(t, ranking, "cycle_id")
	assert.Contains(t, ranking, "rankings")

	w, env = do(t, router, http.MethodPost, base+"/ranking", manager, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "RebalanceTooSoon", env.Error.Code)

	w, env = do(t, router, http.MethodPost, base+"/extract", manager, ExtractCapitalRequest{
		StrategyIDs: []domain.Identity{strategyID},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var extraction rebalancing.ExtractionResult
	require.NoError(t, json.Unmarshal(env.Data, &extraction))
	assert.Equal(t, uint64(1_000_000_000), extraction.TotalNet)

	w, env = do(t, router, http.MethodPost, base+"/redistribute", manager, RedistributeCapitalRequest{
		Allocations: []rebalancing.Allocation{{
			StrategyID:     strategyID,
			Amount:         500_000_000,
			AllocationType: rebalancing.AllocationTopPerformer,
		}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = do(t, router, http.MethodGet, base+"/strategies/"+strategyID.String(), domain.ZeroIdentity, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	assert.Equal(t, float64(500_000_000), stored["current_balance"])

	w, _ = do(t, router, http.MethodGet, base+"/strategies", domain.ZeroIdentity, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, router, http.MethodPost, base+"/pause", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, router, http.MethodPost, base+"/extract", manager, ExtractCapitalRequest{
		StrategyIDs: []domain.Identity{strategyID},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "EmergencyPaused", env.Error.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	router := newTestRouter(t)
	manager := uuid.New()
	address := domain.PortfolioAddress(manager)
	base := "/portfolios/" + address.String()

	w, _ := do(t, router, http.MethodPost, "/portfolios", manager, InitializePortfolioRequest{
		BaseThreshold:        15,
		MinRebalanceInterval: 3600,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name   string
		method string
		path   string
		caller domain.Identity
		body   interface{}
		status int
		code   string
	}{
		{"invalid threshold", http.MethodPost, "/portfolios", uuid.New(), InitializePortfolioRequest{BaseThreshold: 0, MinRebalanceInterval: 3600}, http.StatusBadRequest, "InvalidThreshold"},
		{"missing caller", http.MethodPost, "/portfolios", domain.ZeroIdentity, InitializePortfolioRequest{BaseThreshold: 15, MinRebalanceInterval: 3600}, http.StatusBadRequest, "InvalidManager"},
		{"duplicate portfolio", http.MethodPost, "/portfolios", manager, InitializePortfolioRequest{BaseThreshold: 15, MinRebalanceInterval: 3600}, http.StatusConflict, "PortfolioExists"},
		{"not the manager", http.MethodPost, base + "/ranking", uuid.New(), nil, http.StatusForbidden, "Unauthorized"},
		{"unknown portfolio", http.MethodGet, "/portfolios/" + uuid.New().String(), domain.ZeroIdentity, nil, http.StatusNotFound, "PortfolioNotFound"},
		{"malformed address", http.MethodGet, "/portfolios/not-an-id", domain.ZeroIdentity, nil, http.StatusBadRequest, "InvalidIdentity"},
		{"empty extraction", http.MethodPost, base + "/extract", manager, ExtractCapitalRequest{}, http.StatusBadRequest, "EmptyStrategyList"},
		{"unknown protocol", http.MethodPost, base + "/strategies", manager, RegisterStrategyRequest{StrategyID: uuid.New(), Protocol: protocols.Descriptor{Type: "perpetuals"}}, http.StatusBadRequest, "UnknownProtocol"},
		{"no plan", http.MethodGet, base + "/plan", manager, nil, http.StatusConflict, "InsufficientStrategies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, router, tt.method, tt.path, tt.caller, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestMalformedCallerAndBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/portfolios", bytes.NewReader([]byte("{}")))
	req.Header.Set(CallerHeader, "nobody")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "InvalidCaller")

	req = httptest.NewRequest(http.MethodPost, "/portfolios", bytes.NewReader([]byte("{")))
	req.Header.Set(CallerHeader, uuid.New().String())
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "InvalidBody")
}
