package config

import (
	"os"
	"strconv"
	"time"
)

const (
	runBudgetSecondsEnv   = "RUN_BUDGET_SECONDS"
	processingCadenceEnv  = "PROCESSING_CADENCE"
	warrantyCadenceEnv    = "WARRANTY_CHECK_CADENCE"
	analyticsCadenceEnv   = "ANALYTICS_CADENCE"
	warrantyWindowDaysEnv = "WARRANTY_WINDOW_DAYS"

	defaultRunBudgetSeconds   = 25
	defaultProcessingCadence  = "@every 4h"
	defaultWarrantyCadence    = "@every 12h"
	defaultAnalyticsCadence   = "@every 8h"
	defaultWarrantyWindowDays = 30
)

type CoordinatorConfig struct {
	RunBudget          time.Duration
	ProcessingCadence  string
	WarrantyCadence    string
	AnalyticsCadence   string
	WarrantyWindowDays int
}

func LoadCoordinatorConfig() (*CoordinatorConfig, error) {
	budgetSeconds := defaultRunBudgetSeconds
	if v := os.Getenv(runBudgetSecondsEnv); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidRunBudget
		}
		budgetSeconds = parsed
	}

	processing := os.Getenv(processingCadenceEnv)
	if processing == "" {
		processing = defaultProcessingCadence
	}

	warranty := os.Getenv(warrantyCadenceEnv)
	if warranty == "" {
		warranty = defaultWarrantyCadence
	}

	analytics := os.Getenv(analyticsCadenceEnv)
	if analytics == "" {
		analytics = defaultAnalyticsCadence
	}

	warrantyWindow := defaultWarrantyWindowDays
	if v := os.Getenv(warrantyWindowDaysEnv); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidWarrantyWindow
		}
		warrantyWindow = parsed
	}

	return &CoordinatorConfig{
		RunBudget:          time.Duration(budgetSeconds) * time.Second,
		ProcessingCadence:  processing,
		WarrantyCadence:    warranty,
		AnalyticsCadence:   analytics,
		WarrantyWindowDays: warrantyWindow,
	}, nil
}
