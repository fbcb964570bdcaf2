package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/halcom/halcom/internal/dashboard"
	"github.com/halcom/halcom/internal/watch"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Start the real-time WebSocket dashboard",
	Long: `Start a WebSocket server that broadcasts roster changes.

The server watches the database file for writes (including writes from
other halcom processes), works out which people, tasks, and assignments
changed, and pushes those events plus a fresh snapshot to every
connected client, so external tools can mirror the roster without
polling.

WebSocket messages include:
- person_update: person added or removed
- task_update: task added, completed, or removed
- assignment_update: person linked to or unlinked from a task
- stats: aggregate counts
- snapshot: full roster state after a database change

Example usage:
  halcom dashboard                # Start on the configured port
  halcom dashboard --port 9000    # Start on a custom port

Connect with a WebSocket client:
  ws://localhost:8080/ws`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.Dashboard.Port
		}

		s, err := openStore(cmd)
		if err != nil {
			fatal("%v", err)
		}
		defer s.Close()

		logger := cfg.NewLogger("[dashboard] ")

		server := dashboard.NewServer(&dashboard.Config{
			Port:   port,
			Logger: logger,
		})
		if err := server.Start(); err != nil {
			fatal("failed to start dashboard: %v", err)
		}

		handler := dashboard.NewHandler(server, s, logger)
		if err := handler.Prime(cmd.Context()); err != nil {
			fatal("failed to load roster: %v", err)
		}

		watcher, err := watch.New()
		if err != nil {
			fatal("failed to create watcher: %v", err)
		}
		if err := watcher.Start(s.Path()); err != nil {
			fatal("failed to watch database: %v", err)
		}

		fmt.Printf("Dashboard server started on http://localhost:%d\n", port)
		fmt.Printf("WebSocket endpoint: ws://localhost:%d/ws\n", port)
		fmt.Printf("Watching database: %s\n", s.Path())
		fmt.Println("\nPress Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		for running := true; running; {
			select {
			case <-ctx.Done():
				running = false
			case _, ok := <-watcher.Changes():
				if !ok {
					running = false
					break
				}
				handler.OnDatabaseChanged(context.Background())
			case err, ok := <-watcher.Errors():
				if ok {
					logger.Printf("watch error: %v", err)
				}
			}
		}

		fmt.Println("\nShutting down dashboard server...")
		if err := watcher.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error stopping watcher: %v\n", err)
		}
		if err := server.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Dashboard server stopped")
	},
}

func init() {
	dashboardCmd.Flags().IntP("port", "p", 0, "port to listen on (defaults to config)")
	rootCmd.AddCommand(dashboardCmd)
}
