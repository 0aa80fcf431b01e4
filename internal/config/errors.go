package config

import "errors"

var (
	ErrRedisAddrMissing      = errors.New("REDIS_ADDR is required")
	ErrInvalidRedisDB        = errors.New("REDIS_DB must be a valid integer")
	ErrStoreDirNotWritable   = errors.New("STORE_DIR is not writable")
	ErrInvalidDailyCap       = errors.New("DAILY_NOTIFICATION_CAP must be a positive integer")
	ErrInvalidLookaheadDays  = errors.New("LOOKAHEAD_DAYS must be a positive integer")
	ErrInvalidOptimalHour    = errors.New("OPTIMAL_HOUR must be between 0 and 23")
	ErrInvalidRunBudget      = errors.New("RUN_BUDGET_SECONDS must be a positive integer")
	ErrInvalidDispatchRate   = errors.New("DISPATCH_RATE_PER_SECOND must be a positive integer")
	ErrInvalidWarrantyWindow = errors.New("WARRANTY_WINDOW_DAYS must be a positive integer")
)
