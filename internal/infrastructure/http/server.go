package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"marketdata-service/internal/application"
	"marketdata-service/internal/domain"
)

const dateFmt = "2006-01-02"

// MarketData is the aggregator surface the API exposes.
type MarketData interface {
	GetQuote(ctx context.Context, symbol string) (*domain.PriceSnapshot, domain.ProviderID)
	GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) (domain.HistoricalSeries, domain.ProviderID)
	ProviderStats() application.StatsReport
}

type Server struct {
	market MarketData
	ping   func(ctx context.Context) error
}

func NewServer(market MarketData) *Server { return &Server{market: market} }

// SetReadyCheck installs the dependency probe used by /readyz.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

type quoteResponse struct {
	domain.PriceSnapshot
	Source domain.ProviderID `json:"source"`
}

type historyResponse struct {
	Symbol string                  `json:"symbol"`
	Start  string                  `json:"start"`
	End    string                  `json:"end"`
	Points domain.HistoricalSeries `json:"points"`
	Source domain.ProviderID       `json:"source"`
}

func (s *Server) GetQuote(w http.ResponseWriter, r *http.Request, rawSymbol string) {
	symbol, ok := domain.NormalizeSymbol(rawSymbol)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid symbol")
		return
	}

	snap, source := s.market.GetQuote(r.Context(), symbol)
	if snap == nil {
		writeError(w, http.StatusNotFound, "no data available for symbol")
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{PriceSnapshot: *snap, Source: source})
}

func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request, rawSymbol string) {
	symbol, ok := domain.NormalizeSymbol(rawSymbol)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid symbol")
		return
	}
	start, err := time.Parse(dateFmt, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be a YYYY-MM-DD date")
		return
	}
	end, err := time.Parse(dateFmt, r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be a YYYY-MM-DD date")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end precedes start")
		return
	}

	series, source := s.market.GetHistoricalPrices(r.Context(), symbol, start, end)
	if series == nil {
		writeError(w, http.StatusNotFound, "no data available for symbol")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Symbol: symbol,
		Start:  start.Format(dateFmt),
		End:    end.Format(dateFmt),
		Points: series,
		Source: source,
	})
}

func (s *Server) GetProviderStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.market.ProviderStats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorEnvelope{Code: status, Message: msg})
}
