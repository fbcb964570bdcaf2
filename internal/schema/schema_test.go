package schema

import (
	"strings"
	"testing"
)

func TestPerson_Normalize(t *testing.T) {
	p := Person{Name: "  Alice Smith ", Email: " Alice@Example.COM "}
	p.Normalize()

	if p.Name != "Alice Smith" {
		t.Errorf("Name = %q, want %q", p.Name, "Alice Smith")
	}
	if p.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", p.Email, "alice@example.com")
	}
}

func TestPerson_Validate(t *testing.T) {
	tests := []struct {
		name    string
		person  Person
		wantErr bool
	}{
		{
			name:    "valid person",
			person:  Person{Name: "Alice", Email: "alice@x.com"},
			wantErr: false,
		},
		{
			name:    "missing name",
			person:  Person{Email: "alice@x.com"},
			wantErr: true,
		},
		{
			name:    "missing email",
			person:  Person{Name: "Alice"},
			wantErr: true,
		},
		{
			name:    "whitespace only",
			person:  Person{Name: "   ", Email: "\t"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.person
			p.Normalize()
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPerson_Display(t *testing.T) {
	p := Person{Name: "Alice", Email: "alice@x.com"}
	if got := p.Display(); got != "Alice <alice@x.com>" {
		t.Errorf("Display() = %q", got)
	}
}

func TestTask_Validate(t *testing.T) {
	valid := Task{
		Title:       "Report",
		Description: "Q2 report",
		Deadline:    "2024-05-01",
		Tag:         "#report01",
		Importance:  3,
	}

	tests := []struct {
		name    string
		mutate  func(*Task)
		wantErr string
	}{
		{
			name:   "valid task",
			mutate: func(*Task) {},
		},
		{
			name:    "missing title",
			mutate:  func(task *Task) { task.Title = "" },
			wantErr: "title is required",
		},
		{
			name:    "missing description",
			mutate:  func(task *Task) { task.Description = "" },
			wantErr: "description is required",
		},
		{
			name:    "missing deadline",
			mutate:  func(task *Task) { task.Deadline = "" },
			wantErr: "deadline is required",
		},
		{
			name:    "malformed deadline",
			mutate:  func(task *Task) { task.Deadline = "next tuesday" },
			wantErr: "deadline must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := valid
			tt.mutate(&task)
			err := task.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestClampImportance(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 3},
		{-1, 3},
		{6, 3},
		{100, 3},
		{1, 1},
		{3, 3},
		{5, 5},
	}

	for _, tt := range tests {
		if got := ClampImportance(tt.in); got != tt.want {
			t.Errorf("ClampImportance(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseImportance(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"4", 4},
		{" 2 ", 2},
		{"abc", 3},
		{"", 3},
		{"0", 3},
		{"6", 3},
	}

	for _, tt := range tests {
		if got := ParseImportance(tt.in); got != tt.want {
			t.Errorf("ParseImportance(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Supervisor", "supervisor"},
		{"  MEMBER ", "member"},
		{"admin", "admin"},
	}

	for _, tt := range tests {
		if got := NormalizeRole(tt.in); got != tt.want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAssignment_Validate(t *testing.T) {
	tests := []struct {
		name    string
		a       Assignment
		wantErr bool
	}{
		{
			name: "valid supervisor",
			a:    Assignment{PersonID: 1, TaskID: 2, Role: RoleSupervisor},
		},
		{
			name: "valid member",
			a:    Assignment{PersonID: 1, TaskID: 2, Role: RoleMember},
		},
		{
			name:    "unknown role",
			a:       Assignment{PersonID: 1, TaskID: 2, Role: "admin"},
			wantErr: true,
		},
		{
			name:    "missing person",
			a:       Assignment{TaskID: 2, Role: RoleMember},
			wantErr: true,
		},
		{
			name:    "missing task",
			a:       Assignment{PersonID: 1, Role: RoleMember},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.a.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
