package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halcom/halcom/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database location and aggregate counts",
	Run: func(cmd *cobra.Command, args []string) {
		info, err := os.Stat(cfg.Database.Path)
		if os.IsNotExist(err) {
			fmt.Printf("\n%s Database not initialized\n", ui.Warn("⚠"))
			fmt.Printf("   Run 'halcom init' to create it\n\n")
			return
		}
		if err != nil {
			fatal("failed to check database: %v", err)
		}

		s, err := openStore(cmd)
		if err != nil {
			fatal("%v", err)
		}
		defer s.Close()

		stats, err := s.GetStats(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}

		size := info.Size()
		sizeStr := fmt.Sprintf("%d bytes", size)
		if size > 1024*1024 {
			sizeStr = fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
		} else if size > 1024 {
			sizeStr = fmt.Sprintf("%.1f KB", float64(size)/1024)
		}

		fmt.Printf("\n%s\n\n", ui.Title("Halcom Status"))
		fmt.Printf("Location: %s\n", s.Path())
		fmt.Printf("Size: %s\n", sizeStr)
		fmt.Printf("People: %d\n", stats.People)
		fmt.Printf("Tasks: %d (%d completed, %d overdue)\n", stats.Tasks, stats.Completed, stats.Overdue)
		fmt.Printf("Assignments: %d\n", stats.Assignments)
		fmt.Printf("Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
