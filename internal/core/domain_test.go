package core

import (
	"errors"
	"strings"
	"testing"
)

func validProject() Project {
	return Project{
		Name:       "Casa da Praia",
		Budget:     Money{Cents: 50_000_00},
		StartDate:  NewDate(2026, 1, 1),
		PlannedEnd: NewDate(2026, 12, 31),
	}
}

func TestProjectValidate(t *testing.T) {
	if err := validProject().Validate(); err != nil {
		t.Fatalf("valid project rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Project)
		field  string
		reason string
	}{
		{"empty name", func(p *Project) { p.Name = "  " }, "name", ReasonEmptyField},
		{"name too long", func(p *Project) { p.Name = strings.Repeat("x", 201) }, "name", "too-long"},
		{"zero budget", func(p *Project) { p.Budget = Money{} }, "budget", ReasonNonPositive},
		{"negative budget", func(p *Project) { p.Budget = Money{Cents: -1} }, "budget", ReasonNonPositive},
		{"end before start", func(p *Project) { p.PlannedEnd = NewDate(2025, 12, 31) }, "planned_end_date", ReasonBadDateRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validProject()
			tc.mutate(&p)
			assertInvalid(t, p.Validate(), tc.field, tc.reason)
		})
	}
}

func TestProjectValidateOpenDates(t *testing.T) {
	p := validProject()
	p.StartDate = Date{}
	p.PlannedEnd = Date{}
	if err := p.Validate(); err != nil {
		t.Fatalf("project without dates rejected: %v", err)
	}
}

func TestCategoryValidate(t *testing.T) {
	valid := Category{Name: "Elétrica", Color: "#9b59b6"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid category rejected: %v", err)
	}

	cases := []struct {
		name   string
		cat    Category
		field  string
		reason string
	}{
		{"empty name", Category{Name: "", Color: "#9b59b6"}, "name", ReasonEmptyField},
		{"name too long", Category{Name: strings.Repeat("x", 101), Color: "#9b59b6"}, "name", "too-long"},
		{"no hash", Category{Name: "ok", Color: "9b59b6"}, "color", ReasonBadColor},
		{"short", Category{Name: "ok", Color: "#9b5"}, "color", ReasonBadColor},
		{"bad hex", Category{Name: "ok", Color: "#zzzzzz"}, "color", ReasonBadColor},
		{"empty color", Category{Name: "ok", Color: ""}, "color", ReasonBadColor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertInvalid(t, tc.cat.Validate(), tc.field, tc.reason)
		})
	}
}

func TestEntryValidate(t *testing.T) {
	valid := Entry{
		ProjectID:   1,
		CategoryID:  2,
		Description: "Cimento",
		Amount:      Money{Cents: 4500},
		Date:        NewDate(2026, 3, 10),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Entry)
		field  string
		reason string
	}{
		{"empty description", func(e *Entry) { e.Description = " " }, "description", ReasonEmptyField},
		{"zero amount", func(e *Entry) { e.Amount = Money{} }, "amount", ReasonNonPositive},
		{"zero date", func(e *Entry) { e.Date = Date{} }, "entry_date", ReasonEmptyField},
		{"no project", func(e *Entry) { e.ProjectID = 0 }, "project_id", ReasonMissingFK},
		{"no category", func(e *Entry) { e.CategoryID = 0 }, "category_id", ReasonMissingFK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.mutate(&e)
			assertInvalid(t, e.Validate(), tc.field, tc.reason)
		})
	}
}

func TestUnconfiguredProject(t *testing.T) {
	p := UnconfiguredProject()
	if p.Configured() {
		t.Fatal("sentinel must not report configured")
	}
	if p.Name != UnconfiguredProjectName {
		t.Fatalf("unexpected sentinel name %q", p.Name)
	}
	if p.Budget.Cents != 0 {
		t.Fatalf("sentinel budget must be zero, got %d", p.Budget.Cents)
	}
}

func TestErrorKinds(t *testing.T) {
	val := Invalid("amount", ReasonNonPositive)
	if !IsValidation(val) {
		t.Fatal("validation error not recognized")
	}
	if IsNotFound(val) {
		t.Fatal("validation error misreported as not found")
	}

	nf := &NotFoundError{Entity: "entry", ID: 7}
	if !IsNotFound(nf) {
		t.Fatal("not-found error not recognized")
	}

	wrapped := &StorageError{Op: "entries.get", Err: nf}
	if !IsNotFound(wrapped) {
		t.Fatal("not-found must survive storage wrapping")
	}
	if !errors.Is(errors.Unwrap(wrapped), nf) {
		t.Fatal("storage error must unwrap to its cause")
	}
}

func assertInvalid(t *testing.T, err error, field, reason string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Field != field || verr.Reason != reason {
		t.Fatalf("expected %s/%s, got %s/%s", field, reason, verr.Field, verr.Reason)
	}
}
