// Package api exposes the gateway over HTTP and WebSocket: order entry
// and cancellation as REST endpoints, market data as queries and as a
// streaming feed.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"matchbook/domain/book"
	"matchbook/service"
)

type Server struct {
	log    *zap.Logger
	svc    *service.OrderService
	conv   PriceConverter
	hub    *Hub
	router *mux.Router

	symbol     string
	depthLimit int
}

func NewServer(
	log *zap.Logger,
	svc *service.OrderService,
	conv PriceConverter,
	hub *Hub,
	symbol string,
	depthLimit int,
) *Server {
	s := &Server{
		log:        log.Named("api"),
		svc:        svc,
		conv:       conv,
		hub:        hub,
		router:     mux.NewRouter(),
		symbol:     symbol,
		depthLimit: depthLimit,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/orders", s.handlePlaceOrder).Methods(http.MethodPost)
	v1.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods(http.MethodPost)
	v1.HandleFunc("/orderbook", s.handleDepth).Methods(http.MethodGet)
	v1.HandleFunc("/trades", s.handleTrades).Methods(http.MethodGet)

	s.router.HandleFunc("/ws", s.hub.serveWS)
}

// Handler wraps the router with CORS for browser clients.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(s.router)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	price, err := s.conv.ToTicks(req.Price)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.Submit(r.Context(), service.SubmitRequest{
		OrderID: req.OrderID,
		Side:    side,
		Price:   price,
		Qty:     req.Quantity,
	})
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, placeOrderResponse{
		OrderID: res.OrderID,
		Seq:     res.Seq,
		Resting: res.Resting,
		Trades:  s.conv.tradesJSON(res.Trades),
	})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, err := s.svc.Cancel(r.Context(), req.OrderID)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, cancelOrderResponse{Cancelled: ok})
}

func (s *Server) handleDepth(w http.ResponseWriter, r *http.Request) {
	limit := s.depthLimit
	if v := r.URL.Query().Get("levels"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid levels parameter")
			return
		}
		limit = n
	}

	d, err := s.svc.Depth(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.conv.depthJSON(s.symbol, d))
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = n
	}

	evs, err := s.svc.RecentTrades(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.conv.tradeEventsJSON(evs))
}

func (s *Server) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, book.ErrInvalidPrice),
		errors.Is(err, book.ErrInvalidQty),
		errors.Is(err, book.ErrDuplicateID):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStopped):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.log.Error("submit failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("write response", zap.Error(err))
	}
}
