package handlers

import (
	"agent-market/internal/analysis"
	"agent-market/internal/api/models"
	"agent-market/internal/config"
	"agent-market/internal/simulation"
)

func toConfig(req models.SimulationConfig) config.Config {
	c := config.Config{
		Simulation: config.SimulationConfig{Steps: req.Steps, Seed: req.Seed},
		Traders: config.TraderConfig{
			Count:         req.TraderCount,
			InitialAssets: req.InitialAssets,
			InitialCash:   req.InitialCash,
			Dispositions:  req.Dispositions,
		},
		Market: config.MarketConfig{
			InitialPrices:  req.InitialPrices,
			Sensitivity:    req.Sensitivity,
			NoiseAmplitude: req.NoiseAmplitude,
			Floor:          req.Floor,
		},
		Oracle: config.OracleConfig{
			Name:        req.Oracle.Name,
			Model:       req.Oracle.Model,
			BaseURL:     req.Oracle.BaseURL,
			Timeout:     req.Oracle.Timeout,
			MaxTokens:   req.Oracle.MaxTokens,
			Temperature: req.Oracle.Temperature,
			Responses:   req.Oracle.Responses,
			Window:      req.Oracle.Window,
			Band:        req.Oracle.Band,
			Fallback:    req.Oracle.Fallback,
		},
	}
	if req.Grid != nil {
		c.Grid = config.GridConfig{Width: req.Grid.Width, Height: req.Grid.Height}
	}
	return c
}

// mergeRequestConfig overlays a variation onto the comparison's base config.
func mergeRequestConfig(base, override models.SimulationConfig) models.SimulationConfig {
	out := base
	if override.Steps != 0 {
		out.Steps = override.Steps
	}
	if override.Seed != nil {
		out.Seed = override.Seed
	}
	if override.Grid != nil {
		out.Grid = override.Grid
	}
	if override.TraderCount != 0 {
		out.TraderCount = override.TraderCount
	}
	if override.InitialAssets != nil {
		out.InitialAssets = override.InitialAssets
	}
	if override.InitialCash != nil {
		out.InitialCash = override.InitialCash
	}
	if len(override.Dispositions) > 0 {
		out.Dispositions = override.Dispositions
	}
	if len(override.InitialPrices) > 0 {
		out.InitialPrices = override.InitialPrices
	}
	if override.Sensitivity != nil {
		out.Sensitivity = override.Sensitivity
	}
	if override.NoiseAmplitude != nil {
		out.NoiseAmplitude = override.NoiseAmplitude
	}
	if override.Floor != 0 {
		out.Floor = override.Floor
	}
	if override.Oracle.Name != "" && override.Oracle.Name != base.Oracle.Name {
		out.Oracle = override.Oracle
		return out
	}
	o := &out.Oracle
	if override.Oracle.Model != "" {
		o.Model = override.Oracle.Model
	}
	if override.Oracle.BaseURL != "" {
		o.BaseURL = override.Oracle.BaseURL
	}
	if override.Oracle.Timeout != "" {
		o.Timeout = override.Oracle.Timeout
	}
	if override.Oracle.MaxTokens != 0 {
		o.MaxTokens = override.Oracle.MaxTokens
	}
	if override.Oracle.Temperature != 0 {
		o.Temperature = override.Oracle.Temperature
	}
	if len(override.Oracle.Responses) > 0 {
		o.Responses = override.Oracle.Responses
	}
	if override.Oracle.Window != 0 {
		o.Window = override.Oracle.Window
	}
	if override.Oracle.Band != 0 {
		o.Band = override.Oracle.Band
	}
	if override.Oracle.Fallback != "" {
		o.Fallback = override.Oracle.Fallback
	}
	return out
}

func buildResponse(run *Run, opts models.SimulationOptions) models.SimulationResponse {
	status := "completed"
	if run.Result.Interrupted {
		status = "interrupted"
	}
	resp := models.SimulationResponse{
		ID:        run.ID,
		Status:    status,
		CreatedAt: run.CreatedAt,
		Summary:   buildSummary(run),
		Traders:   convertTraders(run.Summary.Ranking),
		Analysis: models.AnalysisReport{
			Prices:       run.Summary.Prices,
			Benchmark:    convertBenchmark(run.Summary.Benchmark),
			Dispositions: run.Summary.Dispositions,
		},
	}
	if opts.IncludePrices {
		resp.Prices = convertPrices(run.Result)
	}
	if opts.IncludeLedger {
		resp.Ledger = convertTurns(run.Result.Turns)
	}
	return resp
}

func buildSummary(run *Run) models.SimulationSummary {
	res := run.Result
	s := models.SimulationSummary{
		Name:       run.Config.Name,
		Steps:      res.Steps,
		Traders:    len(res.Final),
		Seed:       run.Config.Seed(),
		Oracle:     run.Oracle,
		FinalPrice: res.FinalPrice(),
	}
	if len(res.InitialPrices) > 0 {
		s.InitialPrice = res.InitialPrices[len(res.InitialPrices)-1]
	}
	for _, t := range res.Turns {
		switch t.Outcome {
		case simulation.OutcomeAccepted:
			s.Accepted++
		case simulation.OutcomeRejected:
			s.Rejected++
		case simulation.OutcomeHold:
			s.Holds++
		case simulation.OutcomeUnrecognized:
			s.Unrecognized++
		case simulation.OutcomeOracleError:
			s.OracleErrors++
		}
		if t.Ambiguous {
			s.Ambiguous++
		}
	}
	for _, u := range res.Prices {
		s.UnitsBought += u.BuyVolume
		s.UnitsSold += u.SellVolume
	}
	return s
}

func convertTraders(ranked []analysis.RankedTrader) []models.TraderReport {
	out := make([]models.TraderReport, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, models.TraderReport{
			Rank:           r.Rank,
			Index:          r.Index,
			ID:             r.ID.String(),
			Disposition:    string(r.Disposition),
			Assets:         r.Assets,
			Cash:           r.Cash,
			PortfolioValue: r.FinalValue,
			InitialValue:   r.InitialValue,
			Profit:         r.Profit,
			ReturnPct:      r.ReturnPct,
		})
	}
	return out
}

func convertBenchmark(b analysis.Benchmark) models.BenchmarkReport {
	actions := make([]string, 0, len(b.Path))
	for _, a := range b.Path {
		actions = append(actions, a.String())
	}
	return models.BenchmarkReport{BestValue: b.BestValue, Profit: b.Profit, Actions: actions}
}

func convertTurns(turns []simulation.TurnRecord) []models.TurnRow {
	out := make([]models.TurnRow, 0, len(turns))
	for _, t := range turns {
		out = append(out, models.TurnRow{
			Step:        t.Step,
			TraderIndex: t.TraderIndex,
			TraderID:    t.TraderID.String(),
			Disposition: string(t.Disposition),
			Price:       t.Price,
			Response:    t.Response,
			Action:      t.Action.String(),
			Units:       t.Units,
			Outcome:     string(t.Outcome),
			Reason:      t.Reason,
			Ambiguous:   t.Ambiguous,
			AssetsAfter: t.AssetsAfter,
			CashAfter:   t.CashAfter,
		})
	}
	return out
}

func convertPrices(res *simulation.Result) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(res.InitialPrices)+len(res.Prices))
	for _, p := range res.InitialPrices {
		out = append(out, models.PricePoint{Index: len(out), Price: p})
	}
	for _, u := range res.Prices {
		out = append(out, models.PricePoint{
			Index:      len(out),
			Step:       u.Step,
			Price:      u.Next,
			BuyVolume:  u.BuyVolume,
			SellVolume: u.SellVolume,
			Delta:      u.Delta,
			Noise:      u.Noise,
			Clamped:    u.Clamped,
		})
	}
	return out
}
