package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/halcom/halcom/internal/sqlagent"
	"github.com/halcom/halcom/internal/ui"
)

var sqlCmd = &cobra.Command{
	Use:   "sql [question]",
	Short: "Ask questions answered by generated SQL",
	Long: `Start the natural-language SQL console, or answer one question.

The console reads the live database schema, asks the language model to
translate your question into a single SQLite statement, runs it, and
renders the result as a table. Only the first statement of the model's
answer is executed.

Examples:
  halcom sql
  halcom sql "who supervises the most tasks?"`,
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

		console := sqlagent.New(s, o)

		schemaText, err := console.SchemaText(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}

		if len(args) > 0 {
			runQuestion(cmd, console, schemaText, strings.Join(args, " "))
			return
		}

		fmt.Printf("%s (type 'exit' to quit)\n\n", ui.Title("Natural Language SQL Console"))

		scanner := bufio.NewScanner(os.Stdin)
		for {
			question, ok := readCommand(scanner)
			if !ok {
				break
			}
			question = strings.TrimSpace(question)
			if question == "" {
				continue
			}
			switch strings.ToLower(question) {
			case "exit", "quit":
				return
			}

			runQuestion(cmd, console, schemaText, question)
			fmt.Println()
		}
	},
}

func runQuestion(cmd *cobra.Command, console *sqlagent.Console, schemaText, question string) {
	sqlText, err := console.GenerateSQL(cmd.Context(), schemaText, question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.Error("✗"), err)
		return
	}

	fmt.Println(ui.Dim(sqlText))

	res, err := console.Run(cmd.Context(), sqlText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.Error("✗"), err)
		return
	}

	fmt.Println(sqlagent.Render(res))
}

func init() {
	rootCmd.AddCommand(sqlCmd)
}
