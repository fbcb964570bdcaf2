package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/halcom/halcom/internal/agent"
	"github.com/halcom/halcom/internal/ui"
)

var agentCmd = &cobra.Command{
	Use:   "agent [command text]",
	Short: "Run plain-language commands against the roster",
	Long: `Start the interactive agent, or run a single command.

With no arguments the agent reads commands in a loop until you type
'exit', 'quit', or 'bye'. With arguments it dispatches them as one
command and exits.

Examples:
  halcom agent
  halcom agent add Jane Doe with email jane@example.com
  halcom agent "task for the quarterly report, due next friday"`,
	Run: func(cmd *cobra.Command, args []string) {
		s, err := openStore(cmd)
		if err != nil {
			fatal("%v", err)
		}
		defer s.Close()

		o, err := buildOracle()
		if err != nil {
			fatal("%v", err)
		}

		d := agent.New(s, o, cfg.NewLogger("[agent] "))

		if len(args) > 0 {
			printOutcome(d.Dispatch(cmd.Context(), strings.Join(args, " ")))
			return
		}

		fmt.Printf("%s Type 'exit' or 'quit' to stop.\n\n", ui.Title("Agent is ready."))

		scanner := bufio.NewScanner(os.Stdin)
		for {
			input, ok := readCommand(scanner)
			if !ok {
				break
			}
			input = strings.TrimSpace(input)
			if input == "" {
				continue
			}
			switch strings.ToLower(input) {
			case "exit", "quit", "bye":
				fmt.Println("Goodbye.")
				return
			}

			printOutcome(d.Dispatch(cmd.Context(), input))
			fmt.Println()
		}
	},
}

// readCommand reads one line of input, through a prompt form on a
// terminal and plain line reading otherwise (pipes, scripts).
func readCommand(scanner *bufio.Scanner) (string, bool) {
	if !ui.IsInteractive() {
		if !scanner.Scan() {
			return "", false
		}
		return scanner.Text(), true
	}

	var input string
	err := huh.NewInput().
		Title("halcom>").
		Value(&input).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", false
		}
		fmt.Fprintf(os.Stderr, "input error: %v\n", err)
		return "", false
	}
	return input, true
}

func printOutcome(out *agent.Outcome) {
	for _, ev := range out.Events {
		switch ev.Level {
		case agent.LevelSuccess:
			fmt.Printf("%s %s\n", ui.Success("✓"), ev.Text)
		case agent.LevelWarn:
			fmt.Printf("%s %s\n", ui.Warn("⚠"), ev.Text)
		case agent.LevelError:
			fmt.Printf("%s %s\n", ui.Error("✗"), ev.Text)
		default:
			fmt.Println(ev.Text)
		}
	}
}

func init() {
	rootCmd.AddCommand(agentCmd)
}
