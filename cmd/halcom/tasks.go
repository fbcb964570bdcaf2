package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcom/halcom/internal/schema"
	"github.com/halcom/halcom/internal/ui"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tasks with their assigned people",
	Long: `Display every task with its assignees.

Tasks are ordered by importance (highest first); within each task,
supervisors are listed before members. With --overdue, only incomplete
tasks whose deadline has passed are shown, ordered by deadline.`,
	Run: func(cmd *cobra.Command, args []string) {
		s, err := openStore(cmd)
		if err != nil {
			fatal("%v", err)
		}
		defer s.Close()

		overdue, _ := cmd.Flags().GetBool("overdue")
		if overdue {
			today := time.Now().Format(schema.DeadlineLayout)
			tasks, err := s.ListOverdue(cmd.Context(), today)
			if err != nil {
				fatal("%v", err)
			}
			if len(tasks) == 0 {
				fmt.Println("Nothing overdue.")
				return
			}
			fmt.Printf("%s\n\n", ui.Title(fmt.Sprintf("Overdue as of %s", today)))
			for _, t := range tasks {
				fmt.Printf("%s %s %s\n", ui.Tag(t.Tag), t.Title,
					ui.Warn(fmt.Sprintf("(due %s)", t.Deadline)))
			}
			return
		}

		views, err := s.TasksWithPeople(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		if len(views) == 0 {
			fmt.Println("No tasks yet.")
			return
		}

		fmt.Printf("%s\n\n", ui.Title("Tasks"))
		for _, v := range views {
			status := ""
			if v.Completed {
				status = ui.Success(" [done]")
			}
			fmt.Printf("%s %s %s%s\n", ui.Tag(v.Tag), v.Title,
				ui.Dim(fmt.Sprintf("importance %d", v.Importance)), status)
			if v.Description != "" {
				fmt.Printf("  %s\n", ui.Dim(v.Description))
			}
			for _, p := range v.People {
				fmt.Printf("  - %s %s\n", ui.Person(p.Display), ui.Dim("("+p.Role+")"))
			}
		}
	},
}

func init() {
	tasksCmd.Flags().Bool("overdue", false, "show only overdue tasks")
	rootCmd.AddCommand(tasksCmd)
}
