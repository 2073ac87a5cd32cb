package config

// Merge overlays set fields from override onto base.
// This is used when loading a scenario file and then applying overrides from a config or request.
// Slices replace rather than append; ScenarioFile is taken from override.
func Merge(base, override Config) Config {
	out := base
	out.ScenarioFile = override.ScenarioFile
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Description != "" {
		out.Description = override.Description
	}

	if override.Simulation.Steps != 0 {
		out.Simulation.Steps = override.Simulation.Steps
	}
	if override.Simulation.Seed != nil {
		out.Simulation.Seed = override.Simulation.Seed
	}

	if override.Grid.Width != 0 {
		out.Grid.Width = override.Grid.Width
	}
	if override.Grid.Height != 0 {
		out.Grid.Height = override.Grid.Height
	}

	if override.Traders.Count != 0 {
		out.Traders.Count = override.Traders.Count
	}
	if override.Traders.InitialAssets != nil {
		out.Traders.InitialAssets = override.Traders.InitialAssets
	}
	if override.Traders.InitialCash != nil {
		out.Traders.InitialCash = override.Traders.InitialCash
	}
	if len(override.Traders.Dispositions) > 0 {
		out.Traders.Dispositions = override.Traders.Dispositions
	}

	// An inline price list and a price file are alternatives; whichever the override sets wins.
	if len(override.Market.InitialPrices) > 0 {
		out.Market.InitialPrices = override.Market.InitialPrices
		out.Market.InitialPricesFile = ""
	} else if override.Market.InitialPricesFile != "" {
		out.Market.InitialPricesFile = override.Market.InitialPricesFile
		out.Market.InitialPrices = nil
	}
	if override.Market.Sensitivity != nil {
		out.Market.Sensitivity = override.Market.Sensitivity
	}
	if override.Market.NoiseAmplitude != nil {
		out.Market.NoiseAmplitude = override.Market.NoiseAmplitude
	}
	if override.Market.Floor != 0 {
		out.Market.Floor = override.Market.Floor
	}

	out.Oracle = mergeOracle(base.Oracle, override.Oracle)

	if override.Logging.Level != "" {
		out.Logging.Level = override.Logging.Level
	}
	if override.Logging.DecisionDir != "" {
		out.Logging.DecisionDir = override.Logging.DecisionDir
	}
	return out
}

func mergeOracle(base, override OracleConfig) OracleConfig {
	out := base
	if override.Name != "" && override.Name != base.Name {
		// Switching backends drops settings that only made sense for the old one.
		out = OracleConfig{Timeout: base.Timeout, Fallback: base.Fallback}
		out.Name = override.Name
	}
	if override.Model != "" {
		out.Model = override.Model
	}
	if override.BaseURL != "" {
		out.BaseURL = override.BaseURL
	}
	if override.APIKey != "" {
		out.APIKey = override.APIKey
	}
	if override.Timeout != "" {
		out.Timeout = override.Timeout
	}
	if override.MaxTokens != 0 {
		out.MaxTokens = override.MaxTokens
	}
	if override.Temperature != 0 {
		out.Temperature = override.Temperature
	}
	if len(override.Responses) > 0 {
		out.Responses = override.Responses
	}
	if override.Window != 0 {
		out.Window = override.Window
	}
	if override.Band != 0 {
		out.Band = override.Band
	}
	if override.Fallback != "" {
		out.Fallback = override.Fallback
	}
	return out
}
