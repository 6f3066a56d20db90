package cmd

import (
	"strings"

	"github.com/Iron-Ham/kanvas/internal/cmd/config"
	appconfig "github.com/Iron-Ham/kanvas/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "kanvas",
	Short: "Incident-response case file manager",
	Long: `Kanvas manages incident-response case workbooks (.xlsx).

Opening a case takes an exclusive lock on it. When another user already holds
the lock you can open the case read-only instead; read-only cases can be
browsed, analyzed and exported but never saved.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/kanvas/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	config.Register(rootCmd)
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	appconfig.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(appconfig.ConfigDir())
		viper.AddConfigPath("$HOME/.config/kanvas")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("KANVAS")
	// Replace dots with underscores for nested keys in env vars
	// e.g., KANVAS_SESSION_LOCK_TIMEOUT for session.lock_timeout
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
