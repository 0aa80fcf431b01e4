package config

import (
	"os"
	"strconv"
)

const (
	bridgeURLEnv    = "NOTIFICATION_BRIDGE_URL"
	dispatchRateEnv = "DISPATCH_RATE_PER_SECOND"

	defaultDispatchRate = 10
)

type DispatchConfig struct {
	BridgeURL     string
	RatePerSecond int
}

func LoadDispatchConfig() (*DispatchConfig, error) {
	rate := defaultDispatchRate
	if v := os.Getenv(dispatchRateEnv); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidDispatchRate
		}
		rate = parsed
	}

	return &DispatchConfig{
		BridgeURL:     os.Getenv(bridgeURLEnv),
		RatePerSecond: rate,
	}, nil
}
