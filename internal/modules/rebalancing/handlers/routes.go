package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio and strategy routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios", func(r chi.Router) {
		r.Get("/", h.HandleListPortfolios)
		r.Post("/", h.HandleInitializePortfolio)

		r.Route("/{address}", func(r chi.Router) {
			r.Get("/", h.HandleGetPortfolio)
			r.Post("/pause", h.HandleEmergencyPause)
			r.Post("/ranking", h.HandleExecuteRankingCycle)
			r.Post("/extract", h.HandleExtractCapital)
			r.Post("/redistribute", h.HandleRedistributeCapital)
			r.Get("/plan", h.HandleGetPlan)

			r.Get("/strategies", h.HandleListStrategies)
			r.Post("/strategies", h.HandleRegisterStrategy)
			r.Get("/strategies/{strategyID}", h.HandleGetStrategy)
			r.Put("/strategies/{strategyID}/performance", h.HandleUpdatePerformance)
		})
	})
}
