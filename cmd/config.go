package cmd

import (
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	defaultAuditBudgetMs   = 8500
	defaultAuditCacheTTLMs = 90000
)

// EngineConfig captures the environment-driven settings the audit engine
// reads at startup, mirroring the env vars named in spec.md §6.
type EngineConfig struct {
	BudgetMs      int
	CacheTTLMs    int
	PSIAPIKey     string
	Debug         bool
	BlobToken     string
	BlobPublicURL string
	ShareBase     string
	ResendAPIKey  string
}

// loadEngineConfig reads AUDIT_BUDGET_MS, AUDIT_CACHE_TTL_MS, PSI_API_KEY,
// DEBUG_AUDIT, BLOB_READ_WRITE_TOKEN, BLOB_PUBLIC_BASE and SHARE_BASE
// through viper, with an optional $HOME/.webaudit.yaml file layered
// underneath. cfgFile, when set via --config, overrides the search path.
func loadEngineConfig(cfgFile string) EngineConfig {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".webaudit")
		v.SetConfigType("yaml")
	}
	_ = v.ReadInConfig()

	v.SetDefault("AUDIT_BUDGET_MS", defaultAuditBudgetMs)
	v.SetDefault("AUDIT_CACHE_TTL_MS", defaultAuditCacheTTLMs)

	cfg := EngineConfig{
		BudgetMs:      v.GetInt("AUDIT_BUDGET_MS"),
		CacheTTLMs:    v.GetInt("AUDIT_CACHE_TTL_MS"),
		PSIAPIKey:     v.GetString("PSI_API_KEY"),
		Debug:         v.GetString("DEBUG_AUDIT") == "1",
		BlobToken:     v.GetString("BLOB_READ_WRITE_TOKEN"),
		BlobPublicURL: v.GetString("BLOB_PUBLIC_BASE"),
		ShareBase:     v.GetString("SHARE_BASE"),
		ResendAPIKey:  v.GetString("RESEND_API_KEY"),
	}

	// A config-file change refreshes PSI_API_KEY and SHARE_BASE in
	// liveEngineConfig; the rest are only read once at process start. serve
	// builds its PSI client and share base from the config it read at start,
	// so a running server keeps those values.
	if cfgFile != "" || fileExists(defaultConfigPath()) {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			engineConfigMu.Lock()
			defer engineConfigMu.Unlock()
			liveEngineConfig.PSIAPIKey = v.GetString("PSI_API_KEY")
			liveEngineConfig.ShareBase = v.GetString("SHARE_BASE")
		})
	}

	return cfg
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.webaudit.yaml"
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func budgetDuration(ms int) time.Duration {
	if ms <= 0 {
		ms = defaultAuditBudgetMs
	}
	return time.Duration(ms) * time.Millisecond
}

func cacheTTLDuration(ms int) time.Duration {
	if ms <= 0 {
		ms = defaultAuditCacheTTLMs
	}
	return time.Duration(ms) * time.Millisecond
}
