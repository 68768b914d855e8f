// Package server is a development stand-in for the trade journal service.
// It speaks the same REST contract as the real backend, stores trades in
// SQLite and publishes mock prices over a websocket.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KANG-Hyeong-uk/coin/internal/cache"
	"github.com/KANG-Hyeong-uk/coin/journal"
)

const statsKey = "statistics"

type Server struct {
	R      *gin.Engine
	Store  journal.Service
	Stats  *cache.Cache
	Prices *PriceHub
	Logger *zap.Logger
}

// fieldDetail is one entry of a 422 detail list.
type fieldDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type,omitempty"`
}

// NewServer wires the router, store, statistics cache and price hub.
// prices may be nil, in which case /ws/prices is not mounted.
func NewServer(store journal.Service, stats *cache.Cache, prices *PriceHub, logger *zap.Logger, mw ...gin.HandlerFunc) *Server {
	g := gin.New()
	g.Use(mw...)
	g.Use(gin.Recovery())

	s := &Server{
		R:      g,
		Store:  store,
		Stats:  stats,
		Prices: prices,
		Logger: logger,
	}

	g.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	api := g.Group("/api")
	api.GET("/trades", s.listTrades)
	api.GET("/trades/statistics", s.statistics)
	api.POST("/trades", s.createTrade)
	api.PUT("/trades/:id", s.updateTrade)
	api.PATCH("/trades/:id", s.updateTrade)
	api.DELETE("/trades/:id", s.deleteTrade)

	if prices != nil {
		g.GET("/ws/prices", func(c *gin.Context) { prices.ServeWS(c.Writer, c.Request) })
	}
	return s
}

// --- Helpers ---

func (s *Server) detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}

func (s *Server) unprocessable(c *gin.Context, details []fieldDetail) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": details})
}

// storeError maps a store failure onto the response the real service sends.
func (s *Server) storeError(c *gin.Context, where string, err error) {
	var verr journal.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]fieldDetail, len(verr))
		for i, fe := range verr {
			details[i] = fieldDetail{Loc: []string{"body", fe.Field}, Msg: fe.Message, Type: "value_error"}
		}
		s.unprocessable(c, details)
	case errors.Is(err, journal.ErrNotFound):
		s.detail(c, http.StatusNotFound, "Trade not found")
	default:
		s.Logger.Error("internal_error", zap.String("where", where), zap.Error(err))
		s.detail(c, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) bindInput(c *gin.Context) (journal.TradeInput, bool) {
	var in journal.TradeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.unprocessable(c, []fieldDetail{{Loc: []string{"body"}, Msg: err.Error(), Type: "json_invalid"}})
		return in, false
	}
	return in, true
}

func (s *Server) invalidateStats() {
	if s.Stats != nil {
		s.Stats.Invalidate(statsKey)
	}
}

// --- Handlers ---

func (s *Server) listTrades(c *gin.Context) {
	trades, err := s.Store.ListTrades(c.Request.Context())
	if err != nil {
		s.storeError(c, "ListTrades", err)
		return
	}
	if trades == nil {
		trades = []journal.Trade{}
	}
	c.JSON(http.StatusOK, trades)
}

func (s *Server) statistics(c *gin.Context) {
	var gen uint64
	if s.Stats != nil {
		if v, ok := s.Stats.Get(statsKey); ok {
			c.JSON(http.StatusOK, v)
			return
		}
		gen = s.Stats.Generation()
	}

	st, err := s.Store.Statistics(c.Request.Context())
	if err != nil {
		s.storeError(c, "Statistics", err)
		return
	}
	if s.Stats != nil {
		s.Stats.SetAt(statsKey, st, gen)
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) createTrade(c *gin.Context) {
	in, ok := s.bindInput(c)
	if !ok {
		return
	}
	t, err := s.Store.CreateTrade(c.Request.Context(), in)
	if err != nil {
		s.storeError(c, "CreateTrade", err)
		return
	}
	s.invalidateStats()
	c.JSON(http.StatusCreated, t)
}

func (s *Server) updateTrade(c *gin.Context) {
	in, ok := s.bindInput(c)
	if !ok {
		return
	}
	t, err := s.Store.UpdateTrade(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		s.storeError(c, "UpdateTrade", err)
		return
	}
	s.invalidateStats()
	c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTrade(c *gin.Context) {
	if err := s.Store.DeleteTrade(c.Request.Context(), c.Param("id")); err != nil {
		s.storeError(c, "DeleteTrade", err)
		return
	}
	s.invalidateStats()
	c.Status(http.StatusNoContent)
}
