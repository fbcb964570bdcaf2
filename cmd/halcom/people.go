package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/halcom/halcom/internal/ui"
)

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "List people with their task assignments",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := openStore(cmd)
		if err != nil {
			fatal("%v", err)
		}
		defer s.Close()

		views, err := s.PeopleWithTasks(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		if len(views) == 0 {
			fmt.Println("No people yet.")
			return
		}

		fmt.Printf("%s\n\n", ui.Title("People"))
		for _, v := range views {
			fmt.Printf("%s\n", ui.Person(fmt.Sprintf("%s <%s>", v.Name, v.Email)))
			for _, t := range v.Tasks {
				fmt.Printf("  - %s %s %s\n", ui.Tag(t.Tag), t.Title, ui.Dim("("+t.Role+")"))
			}
		}
	},
}

var peopleFindCmd = &cobra.Command{
	Use:   "find <name or email>",
	Short: "Fuzzy-search people by name or email",
	Long: `Search the roster with approximate matching.

Matching tolerates small typos (edit distance up to 3), so
"halcom people find jonh" still finds John.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s, err := openStore(cmd)
		if err != nil {
			fatal("%v", err)
		}
		defer s.Close()

		query := strings.Join(args, " ")
		people, err := s.SearchPeople(cmd.Context(), query, searchEmailFilter(query))
		if err != nil {
			fatal("%v", err)
		}
		if len(people) == 0 {
			fmt.Printf("No one matching %q.\n", query)
			return
		}

		for _, p := range people {
			fmt.Println(ui.Person(p.Display()))
		}
	},
}

// searchEmailFilter decides whether the query doubles as an email
// filter. SearchPeople narrows to an exact email match whenever the
// filter is non-empty, so plain name text must not be passed there or
// every fuzzy lookup comes back empty.
func searchEmailFilter(query string) string {
	if strings.Contains(query, "@") {
		return query
	}
	return ""
}

func init() {
	peopleCmd.AddCommand(peopleFindCmd)
	rootCmd.AddCommand(peopleCmd)
}
