package reporting

import (
	"encoding/json"

	"backtest-lab/internal/domain"
)

// RenderJSON renders a result as indented JSON with the ledger under "history".
func RenderJSON(result *domain.BacktestResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// RenderJSONAll renders several results as an indented JSON array.
func RenderJSONAll(results []*domain.BacktestResult) ([]byte, error) {
	if results == nil {
		results = []*domain.BacktestResult{}
	}
	return json.MarshalIndent(results, "", "  ")
}
