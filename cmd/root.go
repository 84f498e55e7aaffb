package cmd

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
)

var cfgFile string

// liveEngineConfig holds the config values that can be hot-reloaded via
// viper.WatchConfig (PSI_API_KEY, SHARE_BASE); engineConfigMu guards it
// since fsnotify delivers change events on its own goroutine.
var (
	engineConfigMu   sync.RWMutex
	liveEngineConfig EngineConfig
)

func currentEngineConfig() EngineConfig {
	engineConfigMu.RLock()
	defer engineConfigMu.RUnlock()
	return liveEngineConfig
}

var rootCmd = &cobra.Command{
	Use:   "webaudit",
	Short: "Website audit engine: SEO, performance and security checks for a single URL",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := loadEngineConfig(cfgFile)
		engineConfigMu.Lock()
		liveEngineConfig = cfg
		engineConfigMu.Unlock()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.webaudit.yaml)")
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
