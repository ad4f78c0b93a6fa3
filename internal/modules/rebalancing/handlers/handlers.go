// Package handlers provides HTTP handlers for rebalancing operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/protocols"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
)

// CallerHeader carries the identity of the caller
const CallerHeader = "X-Caller-Identity"

var errInvalidBody = errors.New("invalid request body")

// Handler handles rebalancing HTTP requests
type Handler struct {
	service *rebalancing.Service
	log     zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(service *rebalancing.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "rebalancing").Logger(),
	}
}

// InitializePortfolioRequest is the body of POST /api/portfolios.
// The caller becomes the manager.
type InitializePortfolioRequest struct {
	Payer                *domain.Identity `json:"payer,omitempty"`
	BaseThreshold        uint8            `json:"base_threshold"`
	MinRebalanceInterval uint32           `json:"min_rebalance_interval"`
}

// RegisterStrategyRequest is the body of POST /api/portfolios/{address}/strategies
type RegisterStrategyRequest struct {
	StrategyID     domain.Identity      `json:"strategy_id"`
	Protocol       protocols.Descriptor `json:"protocol"`
	InitialBalance uint64               `json:"initial_balance"`
}

// UpdatePerformanceRequest is the body of PUT .../strategies/{strategyID}/performance
type UpdatePerformanceRequest struct {
	YieldRateBps  uint32 `json:"yield_rate_bps"`
	VolatilityBps uint16 `json:"volatility_bps"`
	Balance       uint64 `json:"balance"`
}

// ExtractCapitalRequest is the body of POST .../extract
type ExtractCapitalRequest struct {
	StrategyIDs []domain.Identity `json:"strategy_ids"`
	FractionBps uint64            `json:"fraction_bps"`
}

// RedistributeCapitalRequest is the body of POST .../redistribute
type RedistributeCapitalRequest struct {
	Allocations []rebalancing.Allocation `json:"allocations"`
}

// HandleInitializePortfolio handles POST /api/portfolios
func (h *Handler) HandleInitializePortfolio(w http.ResponseWriter, r *http.Request) {
	call, ok := h.call(w, r)
	if !ok {
		return
	}
	var req InitializePortfolioRequest
	if !h.decode(w, r, &req) {
		return
	}

	payer := call.Caller
	if req.Payer != nil {
		payer = *req.Payer
	}
	p, err := h.service.InitializePortfolio(r.Context(), rebalancing.InitializePortfolioRequest{
		Manager:              call.Caller,
		Payer:                payer,
		BaseThreshold:        req.BaseThreshold,
		MinRebalanceInterval: req.MinRebalanceInterval,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, p)
}

// HandleListPortfolios handles GET /api/portfolios
func (h *Handler) HandleListPortfolios(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListPortfolios(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, map[string]interface{}{
		"portfolios": list,
		"count":      len(list),
	})
}

// HandleGetPortfolio handles GET /api/portfolios/{address}
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	address, ok := h.identityParam(w, r, "address")
	if !ok {
		return
	}
	p, err := h.service.GetPortfolio(r.Context(), address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, p)
}

// HandleEmergencyPause handles POST /api/portfolios/{address}/pause
func (h *Handler) HandleEmergencyPause(w http.ResponseWriter, r *http.Request) {
	call, address, ok := h.managedCall(w, r)
	if !ok {
		return
	}
	p, err := h.service.EmergencyPause(r.Context(), call, address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, p)
}

// HandleListStrategies handles GET /api/portfolios/{address}/strategies
func (h *Handler) HandleListStrategies(w http.ResponseWriter, r *http.Request) {
	address, ok := h.identityParam(w, r, "address")
	if !ok {
		return
	}
	list, err := h.service.ListStrategies(r.Context(), address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, map[string]interface{}{
		"strategies": list,
		"count":      len(list),
	})
}

// HandleGetStrategy handles GET /api/portfolios/{address}/strategies/{strategyID}
func (h *Handler) HandleGetStrategy(w http.ResponseWriter, r *http.Request) {
	address, ok := h.identityParam(w, r, "address")
	if !ok {
		return
	}
	strategyID, ok := h.identityParam(w, r, "strategyID")
	if !ok {
		return
	}
	s, err := h.service.GetStrategy(r.Context(), address, strategyID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, s)
}

// HandleRegisterStrategy handles POST /api/portfolios/{address}/strategies
func (h *Handler) HandleRegisterStrategy(w http.ResponseWriter, r *http.Request) {
	call, address, ok := h.managedCall(w, r)
	if !ok {
		return
	}
	var req RegisterStrategyRequest
	if !h.decode(w, r, &req) {
		return
	}
	protocol, err := req.Protocol.Protocol()
	if err != nil {
		h.writeError(w, err)
		return
	}

	s, err := h.service.RegisterStrategy(r.Context(), call, rebalancing.RegisterStrategyRequest{
		Portfolio:      address,
		StrategyID:     req.StrategyID,
		Protocol:       protocol,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusCreated, s)
}

// HandleUpdatePerformance handles PUT .../strategies/{strategyID}/performance
func (h *Handler) HandleUpdatePerformance(w http.ResponseWriter, r *http.Request) {
	call, address, ok := h.managedCall(w, r)
	if !ok {
		return
	}
	strategyID, ok := h.identityParam(w, r, "strategyID")
	if !ok {
		return
	}
	var req UpdatePerformanceRequest
	if !h.decode(w, r, &req) {
		return
	}

	s, err := h.service.UpdatePerformance(r.Context(), call, rebalancing.UpdatePerformanceRequest{
		Portfolio:     address,
		StrategyID:    strategyID,
		YieldRateBps:  req.YieldRateBps,
		VolatilityBps: req.VolatilityBps,
		Balance:       req.Balance,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, s)
}

// HandleExecuteRankingCycle handles POST /api/portfolios/{address}/ranking
func (h *Handler) HandleExecuteRankingCycle(w http.ResponseWriter, r *http.Request) {
	call, address, ok := h.managedCall(w, r)
	if !ok {
		return
	}
	result, err := h.service.ExecuteRankingCycle(r.Context(), call, address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, result)
}

// HandleExtractCapital handles POST /api/portfolios/{address}/extract
func (h *Handler) HandleExtractCapital(w http.ResponseWriter, r *http.Request) {
	call, address, ok := h.managedCall(w, r)
	if !ok {
		return
	}
	var req ExtractCapitalRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.ExtractCapital(r.Context(), call, rebalancing.ExtractCapitalRequest{
		Portfolio:   address,
		StrategyIDs: req.StrategyIDs,
		FractionBps: req.FractionBps,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, result)
}

// HandleRedistributeCapital handles POST /api/portfolios/{address}/redistribute
func (h *Handler) HandleRedistributeCapital(w http.ResponseWriter, r *http.Request) {
	call, address, ok := h.managedCall(w, r)
	if !ok {
		return
	}
	var req RedistributeCapitalRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.RedistributeCapital(r.Context(), call, rebalancing.RedistributeCapitalRequest{
		Portfolio:   address,
		Allocations: req.Allocations,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, result)
}

// HandleGetPlan handles GET /api/portfolios/{address}/plan
func (h *Handler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	call, address, ok := h.managedCall(w, r)
	if !ok {
		return
	}
	plan, err := h.service.BuildRebalancingPlan(r.Context(), call, address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, plan)
}

// call reads the caller identity. A missing header yields the zero identity,
// which no operation authorizes.
func (h *Handler) call(w http.ResponseWriter, r *http.Request) (rebalancing.Call, bool) {
	raw := r.Header.Get(CallerHeader)
	if raw == "" {
		return rebalancing.Call{Caller: domain.ZeroIdentity}, true
	}
	caller, err := domain.ParseIdentity(raw)
	if err != nil {
		h.writeStatus(w, http.StatusBadRequest, "InvalidCaller", err.Error())
		return rebalancing.Call{}, false
	}
	return rebalancing.Call{Caller: caller}, true
}

func (h *Handler) managedCall(w http.ResponseWriter, r *http.Request) (rebalancing.Call, domain.Identity, bool) {
	call, ok := h.call(w, r)
	if !ok {
		return call, domain.ZeroIdentity, false
	}
	address, ok := h.identityParam(w, r, "address")
	return call, address, ok
}

func (h *Handler) identityParam(w http.ResponseWriter, r *http.Request, name string) (domain.Identity, bool) {
	id, err := domain.ParseIdentity(chi.URLParam(r, name))
	if err != nil {
		h.writeStatus(w, http.StatusBadRequest, "InvalidIdentity", err.Error())
		return domain.ZeroIdentity, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.log.Debug().Err(err).Msg("Failed to decode request body")
		h.writeStatus(w, http.StatusBadRequest, "InvalidBody", errInvalidBody.Error())
		return false
	}
	return true
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindState:
		return http.StatusConflict
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		h.log.Error().Err(err).Msg("Request failed")
		h.writeStatus(w, http.StatusInternalServerError, "Internal", "internal error")
		return
	}
	h.writeStatus(w, statusFor(kind), domain.CodeOf(err), err.Error())
}

func (h *Handler) writeStatus(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"code":    code,
		},
	})
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
