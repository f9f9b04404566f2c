package api

import (
	"encoding/json"
	"net/http"

	"backtest-lab/internal/oracle"
)

// Prediction service constants
const (
	predictMinPrices    = 60
	predictMockStart    = 50000.0
	predictThreshold    = 0.02
	predictUnknownLabel = "UNKNOWN"
)

// handlePredict serves the prediction endpoint consumed by oracle.HTTPClient.
// Inputs shorter than predictMinPrices are replaced by a mock random walk.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req oracle.PredictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, oracle.ErrorResponse{Error: err.Error()})
		return
	}

	symbol := req.Symbol
	if symbol == "" {
		symbol = predictUnknownLabel
	}

	prices := req.Prices
	if len(prices) < predictMinPrices {
		prices = s.mockPrices(predictMinPrices)
	}

	pred, err := s.predictor.PredictNext(r.Context(), prices)
	if err == nil {
		err = pred.Validate()
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("predict")
		writeJSON(w, http.StatusInternalServerError, oracle.ErrorResponse{Error: err.Error()})
		return
	}

	last := prices[len(prices)-1]
	signal := oracle.Classify(pred.Price, last, predictThreshold, predictThreshold)

	writeJSON(w, http.StatusOK, oracle.PredictResponse{
		Symbol:         symbol,
		PredictedPrice: pred.Price,
		Signal:         signal.String(),
		Confidence:     pred.Confidence,
		CurrentPrice:   last,
	})
}

// mockPrices returns an n-point walk from predictMockStart with steps
// uniform in [0.98, 1.02).
func (s *Server) mockPrices(n int) []float64 {
	s.mockMu.Lock()
	defer s.mockMu.Unlock()

	prices := make([]float64, n)
	prices[0] = predictMockStart
	for i := 1; i < n; i++ {
		prices[i] = prices[i-1] * (0.98 + 0.04*s.mockRng.Float64())
	}
	return prices
}
