package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ollamacli/utils/config"
)

// version is set at build time via ldflags.
var version string

var (
	verbose   bool
	debug     bool
	modelFlag string
	urlFlag   string
)

// appConfig holds the loaded configuration, available to all commands.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "ollamacli",
	Short: "An interactive coding assistant for locally hosted models",
	Long: `Ollamacli is an interactive terminal assistant backed by a locally
hosted model server (Ollama, or any OpenAI-compatible endpoint).

The assistant can create projects, modify loaded files, and run shell
commands, always behind an explicit confirmation.

Getting Started:
  1. ollamacli configure      Pick a model and set preferences
  2. ollamacli                Start chatting

Configuration is stored in ~/.ollamacli/config.yaml`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Timestamps off for clean CLI output.
		log.SetFlags(0)

		// Optional file-based logging for debugging sessions.
		if logFileName := os.Getenv("OLLAMACLI_LOG_FILE"); logFileName != "" {
			if file, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err == nil {
				log.SetOutput(file)
				log.Printf("[INFO] Logging session started at %s\n", time.Now().Format(time.RFC3339))
			} else {
				log.Printf("[WARN] Failed to open log file '%s': %v. Continuing with stderr logging.\n", logFileName, err)
			}
		}

		config.Verbose = verbose
		config.Debug = debug

		var err error
		appConfig, err = config.Load()
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}

		if modelFlag != "" {
			appConfig.Model = modelFlag
		}
		if urlFlag != "" {
			appConfig.OllamaURL = urlFlag
		}
		config.DebugLog("[Root] Configuration loaded: model=%s url=%s", appConfig.Model, appConfig.OllamaURL)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare invocation starts the chat session.
		return runChat(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		log.Printf("ollamacli version: %s\n", getVersion())
	},
}

func getVersion() string {
	if version != "" {
		return version
	}
	return "dev"
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "model to use for this session")
	rootCmd.PersistentFlags().StringVar(&urlFlag, "url", "", "Ollama server URL")
	rootCmd.AddCommand(versionCmd)
}

func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
