package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	log "go.uber.org/zap"

	"github.com/yanet-platform/lifeexit/internal/app"
	"github.com/yanet-platform/lifeexit/internal/monitoring/logger"
	"github.com/yanet-platform/lifeexit/internal/server"
	"github.com/yanet-platform/lifeexit/internal/types/traceid"
)

func main() {
	cmd := &cobra.Command{
		Use:   path.Base(os.Args[0]),
		Short: "lifeexit",
		// Errors are printed below.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.AddCommand(runCommand(), exitCommand())

	// Execute the command. If an error occurs, print it and exit with a
	// non-zero status code.
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		os.Exit(1)
	}
}

func runCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the application until it is asked to exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}

	// Add a flag to specify the path to the config file.
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the config file.")
	return cmd
}

func run(configPath string) error {
	// Create a base context.
	ctx := context.Background()

	// Load the application configuration from the specified config path.
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, shutdownLogger, err := logger.New(ctx, config.Logger)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("starting lifeexit", log.Any("config", config))

	// Flush the logs before the process is terminated.
	terminate := func(status int) {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownLogger(flushCtx)
		os.Exit(status)
	}

	// Initialize the main application logic.
	lifeexit, err := app.New(config, logger, app.WithTerminator(terminate))
	if err != nil {
		return fmt.Errorf("failed to init lifeexit: %w", err)
	}

	err = lifeexit.Run(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = shutdownLogger(flushCtx)
	return err
}

func exitCommand() *cobra.Command {
	var (
		addr   string
		status int
	)
	cmd := &cobra.Command{
		Use:   "exit",
		Short: "Ask a running instance to exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return requestExit(cmd.Context(), cmd.OutOrStdout(), addr, status)
		},
	}

	var defaults server.Config
	defaults.Default()
	cmd.Flags().StringVarP(&addr, "addr", "a", defaults.HTTPAddr, "HTTP address of the running instance.")
	cmd.Flags().IntVarP(&status, "status", "s", 0, "Exit status of the instance.")
	return cmd
}

func requestExit(ctx context.Context, out io.Writer, addr string, status int) error {
	target := url.URL{
		Scheme:   "http",
		Host:     addr,
		Path:     "/exit",
		RawQuery: url.Values{"status": {strconv.Itoa(status)}}.Encode(),
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set(traceid.HeaderKey, traceid.Generate().String())

	client := http.Client{Timeout: 10 * time.Second}
	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if response.StatusCode != http.StatusAccepted {
		return fmt.Errorf("exit rejected: %s: %s", response.Status, body)
	}

	_, err = out.Write(body)
	return err
}
