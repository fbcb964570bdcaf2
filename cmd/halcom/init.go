package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halcom/halcom/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and schema",
	Long: `Initialize the halcom database.

Creates the database file (and its directory) at the configured path
and applies the schema. Running init on an existing database is safe;
the schema statements are idempotent.`,
	Run: func(cmd *cobra.Command, args []string) {
		s, err := openStore(cmd)
		if err != nil {
			fatal("%v", err)
		}
		defer s.Close()

		fmt.Printf("%s Database ready at %s\n", ui.Success("✓"), s.Path())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
