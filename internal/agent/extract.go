package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/halcom/halcom/internal/oracle"
	"github.com/halcom/halcom/internal/schema"
)

// PersonFields is the structured record for add/remove person commands.
type PersonFields struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TaskFields is the structured record for add-task commands.
// Importance arrives as raw JSON because models return it as a number,
// a quoted number, or garbage; coercion happens after decode.
type TaskFields struct {
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Deadline         string          `json:"deadline"`
	SupervisorEmails []string        `json:"supervisor_emails"`
	MemberEmails     []string        `json:"member_emails"`
	Importance       json.RawMessage `json:"importance"`
}

// ImportanceValue coerces the raw importance to an int in [1,5],
// defaulting on anything else.
func (t *TaskFields) ImportanceValue() int {
	raw := strings.Trim(strings.TrimSpace(string(t.Importance)), `"`)
	return schema.ParseImportance(raw)
}

// AssignmentFields is the structured record for linking a person to a
// task.
type AssignmentFields struct {
	Email string `json:"email"`
	Tag   string `json:"tag"`
	Role  string `json:"role"`
}

// RemovalFields is the structured record for unlink and task removal
// commands.
type RemovalFields struct {
	Email string `json:"email"`
	Tag   string `json:"tag"`
}

const personPrompt = `Extract the person fields from the text below.

Return ONLY a JSON object in this exact shape, no other output:
{"name": "<full name>", "email": "<email address>"}

Use "" for anything the text does not contain.

Text:
%s`

const taskPrompt = `Extract the task fields from the text below.

Return ONLY a JSON object in this exact shape, no other output:
{"title": "<short task title>",
 "description": "<brief description>",
 "deadline": "<deadline in YYYY-MM-DD format>",
 "supervisor_emails": ["<email>", ...],
 "member_emails": ["<email>", ...],
 "importance": <integer 1-5>}

Use "" or [] for anything the text does not contain.

Text:
%s`

const assignmentPrompt = `Extract the assignment fields from the text below.

Return ONLY a JSON object in this exact shape, no other output:
{"email": "<email address>", "tag": "<task tag>", "role": "<supervisor or member>"}

Constraints:
- role must be exactly "supervisor" or "member"; if unclear, pick the likelier one.
- Do not modify or remove the '#' symbol from the tag.
- Use "" for anything the text does not contain.

Text:
%s`

const removalPrompt = `Extract the fields from the text below.

Return ONLY a JSON object in this exact shape, no other output:
{"email": "<email address>", "tag": "<task tag>"}

Constraints:
- Do not modify or remove the '#' symbol from the tag.
- Use "" for anything the text does not contain.

Text:
%s`

// ExtractPerson pulls name and email from the input.
func ExtractPerson(ctx context.Context, o oracle.Oracle, input string) (*PersonFields, error) {
	var f PersonFields
	if err := extract(ctx, o, fmt.Sprintf(personPrompt, input), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ExtractTask pulls the full task record from the input, normalizing
// the deadline to YYYY-MM-DD where possible.
func ExtractTask(ctx context.Context, o oracle.Oracle, input string) (*TaskFields, error) {
	var f TaskFields
	if err := extract(ctx, o, fmt.Sprintf(taskPrompt, input), &f); err != nil {
		return nil, err
	}
	f.Deadline = NormalizeDeadline(f.Deadline, time.Now())
	return &f, nil
}

// ExtractAssignment pulls email, tag and role from the input.
func ExtractAssignment(ctx context.Context, o oracle.Oracle, input string) (*AssignmentFields, error) {
	var f AssignmentFields
	if err := extract(ctx, o, fmt.Sprintf(assignmentPrompt, input), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ExtractRemoval pulls email and tag from the input.
func ExtractRemoval(ctx context.Context, o oracle.Oracle, input string) (*RemovalFields, error) {
	var f RemovalFields
	if err := extract(ctx, o, fmt.Sprintf(removalPrompt, input), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// extract runs a prompt and decodes the oracle's JSON answer into dst.
func extract(ctx context.Context, o oracle.Oracle, prompt string, dst interface{}) error {
	out, err := o.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	payload := stripToJSON(out)
	if payload == "" {
		return fmt.Errorf("extraction returned no JSON object: %q", out)
	}

	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return fmt.Errorf("extraction returned malformed JSON: %w", err)
	}

	return nil
}

// stripToJSON cuts markdown fences and surrounding prose down to the
// first top-level JSON object in the text.
func stripToJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// NormalizeDeadline returns the deadline in YYYY-MM-DD, parsing natural
// phrases ("tomorrow", "next friday") relative to now. Input that
// resolves to nothing is returned unchanged so the store can reject it
// as a missing field.
func NormalizeDeadline(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if _, err := time.Parse(schema.DeadlineLayout, s); err == nil {
		return s
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	if r, err := w.Parse(s, now); err == nil && r != nil {
		return r.Time.Format(schema.DeadlineLayout)
	}
	return s
}
