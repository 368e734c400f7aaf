package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/KirkDiggler/bot-stage/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "stage",
	Short: "Bot avatar stage",
	Long:  `Runs the avatar stage headless and inspects character models.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			fmt.Fprintf(os.Stderr, "load %s: %v\n", envFile, err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file loaded before reading configuration")
}

// newLogger builds the process logger from the log config
func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
