package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcom/halcom/internal/loadtest"
	"github.com/halcom/halcom/internal/ui"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark projection queries under concurrent readers",
	Long: `Seed a throwaway database and measure query latency.

The harness creates a temporary database populated with the requested
roster size, then runs the tasks-with-people projection from N
concurrent readers and reports latency percentiles. The configured
database is never touched.`,
	Run: func(cmd *cobra.Command, args []string) {
		people, _ := cmd.Flags().GetInt("people")
		tasks, _ := cmd.Flags().GetInt("tasks")
		readers, _ := cmd.Flags().GetInt("readers")
		queries, _ := cmd.Flags().GetInt("queries")

		tmpDir, err := os.MkdirTemp("", "halcom-bench-")
		if err != nil {
			fatal("failed to create temp dir: %v", err)
		}
		defer os.RemoveAll(tmpDir)
		benchPath := filepath.Join(tmpDir, "bench.db")

		fmt.Printf("%s people=%d tasks=%d readers=%d queries/reader=%d\n\n",
			ui.Title("Seeding benchmark database"), people, tasks, readers, queries)

		seedStart := time.Now()
		td, err := loadtest.Seed(benchPath, people, tasks)
		if err != nil {
			fatal("failed to seed database: %v", err)
		}
		defer td.Close()
		fmt.Printf("Seeded %d assignments in %v\n\n", td.Assignments,
			time.Since(seedStart).Round(time.Millisecond))

		stats, err := td.RunConcurrentQueries(readers, queries)
		if err != nil {
			fatal("benchmark failed: %v", err)
		}

		fmt.Print(stats.Format())
		if stats.Errors > 0 {
			fmt.Printf("\n%s %d queries failed\n", ui.Warn("⚠"), stats.Errors)
			os.Exit(1)
		}
	},
}

func init() {
	benchCmd.Flags().Int("people", 50, "number of people to seed")
	benchCmd.Flags().Int("tasks", 500, "number of tasks to seed")
	benchCmd.Flags().Int("readers", 100, "concurrent readers")
	benchCmd.Flags().Int("queries", 10, "queries per reader")
	rootCmd.AddCommand(benchCmd)
}
