package config

import (
	"os"
	"path/filepath"
)

const (
	storeDirEnv = "STORE_DIR"

	defaultStoreDirName = "reminder-engine"
	backupFileName      = "notification_state.db"
)

type StoreConfig struct {
	Dir        string
	BackupPath string
}

func LoadStoreConfig() (*StoreConfig, error) {
	dir := os.Getenv(storeDirEnv)
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		dir = filepath.Join(base, defaultStoreDirName)
	}

	return &StoreConfig{
		Dir:        dir,
		BackupPath: filepath.Join(dir, backupFileName),
	}, nil
}
