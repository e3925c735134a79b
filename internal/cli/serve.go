package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/invincible-jha/agent-benchmark-governance/internal/server"
)

var (
	serveAddr     string
	serveConfig   string
	serveAuditLog string
	serveAuditDB  string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8470", "HTTP listen address")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Path to gate YAML config")
	serveCmd.Flags().StringVar(&serveAuditLog, "audit-log", "", "Path to audit log JSONL file")
	serveCmd.Flags().StringVar(&serveAuditDB, "audit-db", "", "Path to SQLite audit store")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP admission gate server",
	Long: "Runs the gate as an HTTP server. Clients POST action requests to\n" +
		"/v1/evaluate and receive the decision and reason.\n" +
		"Supports hot-reload of the configuration file.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := server.New(server.Config{
		Addr:         serveAddr,
		ConfigPath:   serveConfig,
		AuditLogPath: serveAuditLog,
		AuditDBPath:  serveAuditDB,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if serveConfig != "" {
		reloader, err := server.NewReloader(srv, serveConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: hot-reload disabled: %v\n", err)
		} else {
			go reloader.Run(ctx)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down admission gate...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "agentgate listening on %s\n", serveAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
