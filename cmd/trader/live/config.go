package main

import "time"

const (
	Symbol       = "BTCUSDT"
	CandlePeriod = time.Minute
	StreamURL    = "wss://stream.binance.com:9443/ws/btcusdt@kline_1m"

	StrategyWindow   = 20
	SignalThreshold  = 2
	OrderSize        = "0.01"
	OrderMinInterval = 10 * time.Second
	CommissionRate   = "0.001"

	ShutdownTimeout = 5 * time.Second
)
