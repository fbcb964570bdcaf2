// Package schema provides the data structures shared by the halcom store
// and its callers: people, tasks, and the assignments linking them.
package schema

import (
	"fmt"
	"strings"
)

// Person is a row in the people table.
//
// Email is the public handle: it is unique, required, and stored lowercase.
// Name may be blank in the table itself; AddPerson enforces its own
// non-empty precondition before insert.
type Person struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Normalize trims both fields and lowercases the email.
// Called before validation so that " Foo@X.COM " and "foo@x.com"
// collide on the unique constraint rather than slipping past it.
func (p *Person) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
}

// Validate checks the AddPerson precondition: both fields non-empty
// after normalization.
func (p *Person) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Email == "" {
		return fmt.Errorf("email is required")
	}
	return nil
}

// Display renders the person as "Name <email>", the form used by
// projections and status lines.
func (p *Person) Display() string {
	return fmt.Sprintf("%s <%s>", p.Name, p.Email)
}
