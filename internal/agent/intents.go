// Package agent turns free-form text into store operations.
//
// The oracle classifies intent and extracts fields; everything it
// returns is treated as unreliable. Extraction uses a structured JSON
// contract decoded into typed records, never line scraping, and the
// dispatcher degrades every bad field into a rejection instead of a
// fault.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/halcom/halcom/internal/oracle"
)

// Intent is a classified user command.
type Intent string

const (
	IntentAddPerson            Intent = "add_person"
	IntentAddTask              Intent = "add_task"
	IntentRemovePerson         Intent = "remove_person"
	IntentRemoveTask           Intent = "remove_task"
	IntentCompleteTask         Intent = "complete_task"
	IntentAddPersonToTask      Intent = "add_person_to_task"
	IntentRemovePersonFromTask Intent = "remove_person_from_task"
	IntentDisplayTasks         Intent = "display_tasks"
	IntentDisplayPeople        Intent = "display_people"
	IntentShowOverdue          Intent = "show_overdue"
	IntentOther                Intent = "other"
)

var knownIntents = map[Intent]bool{
	IntentAddPerson:            true,
	IntentAddTask:              true,
	IntentRemovePerson:         true,
	IntentRemoveTask:           true,
	IntentCompleteTask:         true,
	IntentAddPersonToTask:      true,
	IntentRemovePersonFromTask: true,
	IntentDisplayTasks:         true,
	IntentDisplayPeople:        true,
	IntentShowOverdue:          true,
}

const classifyPrompt = `Classify the following command into exactly one of:
'add_person', 'add_task', 'remove_person', 'remove_task', 'complete_task',
'add_person_to_task', 'remove_person_from_task', 'display_tasks',
'display_people', 'show_overdue', or 'other'.

Command: %q

Constraints:
- Answer with one word only.
- The answer must be one of the listed intents.`

// Classify asks the oracle which intent the input carries. Any answer
// outside the vocabulary, and any oracle failure, collapses to
// IntentOther so the caller can ask the user to rephrase.
func Classify(ctx context.Context, o oracle.Oracle, input string) Intent {
	out, err := o.Complete(ctx, fmt.Sprintf(classifyPrompt, input))
	if err != nil {
		return IntentOther
	}

	intent := Intent(strings.Trim(strings.ToLower(strings.TrimSpace(out)), `'"`))
	if !knownIntents[intent] {
		return IntentOther
	}
	return intent
}
