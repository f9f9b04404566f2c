package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"backtest-lab/internal/backtest"
)

const missingFieldsMessage = "Please provide symbol, strategy, and duration"

// BacktestRequest is the body of POST /api/backtest.
// Duration may be a JSON number or a numeric string.
type BacktestRequest struct {
	Symbol   string          `json:"symbol"`
	Strategy string          `json:"strategy"`
	Duration json.RawMessage `json:"duration"`
}

// toRequest converts the raw body into a runner request.
// Missing fields and malformed durations wrap backtest.ErrInvalidInput.
func (b BacktestRequest) toRequest() (backtest.Request, error) {
	raw := bytes.TrimSpace(b.Duration)
	if strings.TrimSpace(b.Symbol) == "" || strings.TrimSpace(b.Strategy) == "" ||
		len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return backtest.Request{}, fmt.Errorf("%w: %s", backtest.ErrInvalidInput, missingFieldsMessage)
	}

	days, err := parseDuration(raw)
	if err != nil {
		return backtest.Request{}, err
	}

	return backtest.Request{
		Symbol:       b.Symbol,
		Strategy:     b.Strategy,
		DurationDays: days,
	}, nil
}

func parseDuration(raw []byte) (int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return backtest.ParseDuration(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%w: %s", backtest.ErrInvalidDuration, raw)
	}
	return backtest.ParseDuration(n.String())
}

// handleBacktest runs one backtest and returns the result JSON.
func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var body BacktestRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: missingFieldsMessage, Error: err.Error()})
		return
	}

	req, err := body.toRequest()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: inputMessage(err)})
		return
	}

	result, err := s.runner.Run(r.Context(), req)
	s.recordRun(err)
	if err != nil {
		if errors.Is(err, backtest.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: inputMessage(err)})
			return
		}
		s.logger.Error().Err(err).Str("symbol", req.Symbol).Str("strategy", req.Strategy).Msg("backtest failed")
		writeJSON(w, http.StatusInternalServerError, messageResponse{
			Message: "Backtest execution failed",
			Error:   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// inputMessage strips the sentinel prefix from input errors.
func inputMessage(err error) string {
	msg := err.Error()
	return strings.TrimPrefix(msg, backtest.ErrInvalidInput.Error()+": ")
}

// queryRequest builds a runner request from query parameters.
func queryRequest(r *http.Request) (backtest.Request, error) {
	q := r.URL.Query()
	body := BacktestRequest{
		Symbol:   q.Get("symbol"),
		Strategy: q.Get("strategy"),
	}
	if d := q.Get("duration"); d != "" {
		body.Duration = json.RawMessage(strconv.Quote(d))
	}
	return body.toRequest()
}
