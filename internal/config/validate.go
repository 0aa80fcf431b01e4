package config

import "os"

// ValidateForRun checks everything the service needs before serving traffic.
// The inventory and bridge URLs stay optional: scheduling still works from
// inline item payloads, and an unconfigured bridge logs submissions instead.
func ValidateForRun(cfg *Config) error {
	if err := cfg.Redis.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Store.Dir, 0o755); err != nil {
		return ErrStoreDirNotWritable
	}

	return nil
}
