package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"wiki-annotator/internal/client"
	"wiki-annotator/internal/config"
	"wiki-annotator/internal/domain"
	"wiki-annotator/pkg/logger"
)

var (
	noColor        bool
	apiURL         string
	apiToken       string
	apiRate        float64
	containerClass string
	logLevel       string
)

var rootCmd = &cobra.Command{
	Use:           "annotate",
	Short:         "Highlight and annotate saved article pages",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := config.NewConfig()
		if !cmd.Flags().Changed("api") {
			apiURL = cfg.GetNotesAPIURL()
		}
		if !cmd.Flags().Changed("token") {
			apiToken = cfg.GetNotesAPIToken()
		}
		if !cmd.Flags().Changed("rate") {
			apiRate = cfg.GetNotesAPIRate()
		}
		if !cmd.Flags().Changed("container") {
			containerClass = cfg.GetContainerClass()
		}
		if !cmd.Flags().Changed("log-level") {
			logLevel = cfg.GetLogLevel()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "notes API base URL (default $NOTES_API_URL)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "bearer token for the notes API (default $NOTES_API_TOKEN)")
	rootCmd.PersistentFlags().Float64Var(&apiRate, "rate", 0, "maximum API requests per second (default $NOTES_API_RATE)")
	rootCmd.PersistentFlags().StringVar(&containerClass, "container", "", "class of the annotatable content element (default $ANNOTATION_CONTAINER_CLASS)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default $LOG_LEVEL)")

	rootCmd.AddCommand(highlightCmd, restoreCmd, listCmd, editCmd, deleteCmd)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		printError("%v", err)
		os.Exit(1)
	}
}

func newNotesClient() *client.NotesClient {
	return client.New(apiURL,
		client.WithToken(apiToken),
		client.WithRateLimit(apiRate),
	)
}

func newLogger() domain.Logger {
	return logger.NewLoggerWithWriter(logLevel, os.Stderr)
}

func requireAPI() error {
	if apiURL == "" {
		return fmt.Errorf("notes API URL is required (--api or NOTES_API_URL)")
	}
	return nil
}
