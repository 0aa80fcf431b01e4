package config

import (
	"os"
	"strconv"
)

const (
	dailyCapEnv      = "DAILY_NOTIFICATION_CAP"
	lookaheadDaysEnv = "LOOKAHEAD_DAYS"
	optimalHourEnv   = "OPTIMAL_HOUR"

	defaultDailyCap      = 3
	defaultLookaheadDays = 7
	defaultOptimalHour   = 9
)

// SchedulerConfig seeds the initial settings snapshot; stored preferences
// loaded afterwards take precedence.
type SchedulerConfig struct {
	DailyCap      int
	LookaheadDays int
	OptimalHour   int
}

func LoadSchedulerConfig() (*SchedulerConfig, error) {
	dailyCap := defaultDailyCap
	if v := os.Getenv(dailyCapEnv); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidDailyCap
		}
		dailyCap = parsed
	}

	lookahead := defaultLookaheadDays
	if v := os.Getenv(lookaheadDaysEnv); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidLookaheadDays
		}
		lookahead = parsed
	}

	optimalHour := defaultOptimalHour
	if v := os.Getenv(optimalHourEnv); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 || parsed > 23 {
			return nil, ErrInvalidOptimalHour
		}
		optimalHour = parsed
	}

	return &SchedulerConfig{
		DailyCap:      dailyCap,
		LookaheadDays: lookahead,
		OptimalHour:   optimalHour,
	}, nil
}
