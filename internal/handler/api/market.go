package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"coincast/internal/domain/models"
	"coincast/internal/provider/chain"
	"coincast/internal/provider/sentiment"
	"coincast/internal/services/analytics"
	"coincast/internal/usecase"
	xhttp "coincast/pkg/http"
	xlogger "coincast/pkg/logger"
)

// MarketHandler serves the aggregation views over HTTP. Every endpoint
// returns a complete result with per-entry status; a partial provider outage
// shows up as failed/stale entries, never as a 5xx.
type MarketHandler struct {
	logger    *xlogger.Logger
	refresher *usecase.Refresher
	chain     *chain.Gateway
	hub       *Hub
}

func NewMarketHandler(l *xlogger.Logger, r *usecase.Refresher, g *chain.Gateway, hub *Hub) *MarketHandler {
	return &MarketHandler{logger: l, refresher: r, chain: g, hub: hub}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	if h.hub != nil {
		e.GET("/ws", h.hub.Handle)
	}

	g := e.Group("/api/v1")
	g.GET("/snapshot", h.Snapshot)
	g.GET("/spreads", h.Spreads)
	g.GET("/alerts", h.Alerts)
	g.GET("/sentiment", h.Sentiment)
	g.GET("/balance", h.Balance)
	g.POST("/refresh", h.ForceRefresh)
}

func (h *MarketHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Snapshot runs an aggregation pass through the cache and returns the full
// view. Within a TTL window this costs no provider calls.
func (h *MarketHandler) Snapshot(c echo.Context) error {
	snap := h.refresher.Refresh(c.Request().Context())
	return xhttp.SuccessResponse(c, snap)
}

func (h *MarketHandler) Spreads(c echo.Context) error {
	snap := h.refresher.Refresh(c.Request().Context())
	return xhttp.SuccessResponse(c, analytics.ComputeSpreads(snap))
}

func (h *MarketHandler) Alerts(c echo.Context) error {
	threshold := h.refresher.Threshold()
	if raw := c.QueryParam("threshold"); raw != "" {
		t, err := decimal.NewFromString(raw)
		if err != nil || t.IsNegative() {
			return xhttp.BadRequestResponse(c, "threshold must be a non-negative decimal")
		}
		threshold = t
	}

	snap := h.refresher.Refresh(c.Request().Context())
	return xhttp.SuccessResponse(c, analytics.Screen(snap, threshold))
}

// Sentiment extracts the sentiment index entry from the latest snapshot.
func (h *MarketHandler) Sentiment(c echo.Context) error {
	snap := h.refresher.Refresh(c.Request().Context())
	for _, e := range snap.Entries {
		if e.Key.Source == models.ProviderSentiment && e.Key.Instrument == sentiment.Instrument {
			return xhttp.SuccessResponse(c, e)
		}
	}
	return xhttp.NotFoundResponse(c, "sentiment index not configured")
}

func (h *MarketHandler) Balance(c echo.Context) error {
	if h.chain == nil {
		return xhttp.NotFoundResponse(c, "balance gateway not configured")
	}
	address := c.QueryParam("address")

	bal, err := h.chain.FetchBalance(c.Request().Context(), address)
	if err != nil {
		if errors.Is(err, chain.ErrInvalidAddress) {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		h.logger.Error("balance fetch failed", xlogger.Error(err))
		return xhttp.BadGatewayResponse(c, "balance gateway unavailable")
	}
	return xhttp.SuccessResponse(c, bal)
}

// ForceRefresh triggers an immediate cycle, the user-driven analog of the
// periodic refresh.
func (h *MarketHandler) ForceRefresh(c echo.Context) error {
	snap := h.refresher.Refresh(c.Request().Context())
	ok, stale, failed := snap.Counts()
	return xhttp.SuccessResponse(c, map[string]int{"ok": ok, "stale": stale, "failed": failed})
}
