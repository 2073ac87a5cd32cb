package models

import (
	"time"

	"github.com/shopspring/decimal"

	"agent-market/internal/analysis"
)

// SimulationResponse represents the response from a simulation run
type SimulationResponse struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"` // "completed" or "interrupted"
	CreatedAt time.Time         `json:"created_at"`
	Summary   SimulationSummary `json:"summary"`
	Traders   []TraderReport    `json:"traders"`
	Analysis  AnalysisReport    `json:"analysis"`
	Prices    []PricePoint      `json:"prices,omitempty"`
	Ledger    []TurnRow         `json:"ledger,omitempty"`
}

// SimulationSummary contains aggregated run results
type SimulationSummary struct {
	Name         string  `json:"name,omitempty"`
	Steps        int     `json:"steps"`
	Traders      int     `json:"traders"`
	Seed         int64   `json:"seed"`
	Oracle       string  `json:"oracle"`
	InitialPrice float64 `json:"initial_price"`
	FinalPrice   float64 `json:"final_price"`

	Accepted     int `json:"accepted"`
	Rejected     int `json:"rejected"`
	Holds        int `json:"holds"`
	Unrecognized int `json:"unrecognized"`
	OracleErrors int `json:"oracle_errors"`
	Ambiguous    int `json:"ambiguous"`

	UnitsBought int `json:"units_bought"`
	UnitsSold   int `json:"units_sold"`
}

// TraderReport is one trader's final position
type TraderReport struct {
	Rank           int             `json:"rank"`
	Index          int             `json:"index"`
	ID             string          `json:"id"`
	Disposition    string          `json:"disposition"`
	Assets         int             `json:"assets"`
	Cash           decimal.Decimal `json:"cash"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
	InitialValue   decimal.Decimal `json:"initial_value"`
	Profit         decimal.Decimal `json:"profit"`
	ReturnPct      decimal.Decimal `json:"return_pct"`
}

// AnalysisReport carries price statistics and the perfect-foresight benchmark
type AnalysisReport struct {
	Prices       analysis.PriceStats           `json:"prices"`
	Benchmark    BenchmarkReport               `json:"benchmark"`
	Dispositions []analysis.DispositionSummary `json:"dispositions"`
}

type BenchmarkReport struct {
	BestValue decimal.Decimal `json:"best_value"`
	Profit    decimal.Decimal `json:"profit"`
	Actions   []string        `json:"actions"`
}

// PricePoint is one entry of the price history. Seed prices have step 0.
type PricePoint struct {
	Index      int     `json:"index"`
	Step       int     `json:"step"`
	Price      float64 `json:"price"`
	BuyVolume  int     `json:"buy_volume"`
	SellVolume int     `json:"sell_volume"`
	Delta      float64 `json:"delta"`
	Noise      float64 `json:"noise"`
	Clamped    bool    `json:"clamped"`
}

// TurnRow represents one trader turn in the ledger
type TurnRow struct {
	Step        int             `json:"step"`
	TraderIndex int             `json:"trader_index"`
	TraderID    string          `json:"trader_id"`
	Disposition string          `json:"disposition"`
	Price       float64         `json:"price"`
	Response    string          `json:"response"`
	Action      string          `json:"action"`
	Units       int             `json:"units"`
	Outcome     string          `json:"outcome"`
	Reason      string          `json:"reason,omitempty"`
	Ambiguous   bool            `json:"ambiguous"`
	AssetsAfter int             `json:"assets_after"`
	CashAfter   decimal.Decimal `json:"cash_after"`
}

// LedgerResponse is returned by GET /simulations/:id/ledger
type LedgerResponse struct {
	ID     string    `json:"id"`
	Ledger []TurnRow `json:"ledger"`
}

// PricesResponse is returned by GET /simulations/:id/prices
type PricesResponse struct {
	ID     string       `json:"id"`
	Prices []PricePoint `json:"prices"`
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name       string            `json:"name"`
	ID         string            `json:"id,omitempty"`
	Summary    SimulationSummary `json:"summary"`
	BestTrader *TraderReport     `json:"best_trader,omitempty"`
	Error      *ErrorDetail      `json:"error,omitempty"`
}

// DispositionInfo describes one trader personality
type DispositionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// OracleInfo represents information about a decision backend
type OracleInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes an oracle parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "string", "duration", "[]string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
