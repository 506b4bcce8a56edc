package main

import "time"

const (
	Symbol       = "BTCUSDT"
	CandlePeriod = time.Minute

	GeneratorSeed    = 42
	GeneratorUpdates = 12
	GeneratorCandles = 500
	GeneratorPacing  = 50 * time.Millisecond
	StartPrice       = 65_000.0
	Drift            = 0.0
	Volatility       = 0.002

	StrategyWindow = 20

	ShutdownTimeout = 5 * time.Second
)

var GeneratorStart = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
