package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"travel-agents/api_go/cmd/server"
)

var cfgFile string

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "travel-agents",
	Short: "API gateway bridging MCP tool servers into a streaming travel-planning chat",
	Long: `travel-agents runs the travel planning API gateway.

It connects to the configured MCP tool servers, builds a triage agent
plus one specialist per tool server, and streams each chat turn as
newline-delimited JSON events.`,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .travel-agents.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("log-file", "", "log file path (optional)")
	rootCmd.PersistentFlags().Float64("temperature", 0.2, "LLM temperature")
	rootCmd.PersistentFlags().Int("max-turns", 10, "maximum agent loop turns per chat request")

	viper.BindPFlag("LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("LOG_FORMAT", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("LOG_FILE", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("TEMPERATURE", rootCmd.PersistentFlags().Lookup("temperature"))
	viper.BindPFlag("MAX_TURNS", rootCmd.PersistentFlags().Lookup("max-turns"))

	rootCmd.AddCommand(server.ServerCmd)
}

// initConfig loads .env and the optional config file before any
// command runs.
func initConfig() {
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			fmt.Fprintln(os.Stderr, "No .env file found, using system environment variables")
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".travel-agents")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
