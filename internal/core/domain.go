package core

import (
	"regexp"
	"strings"
	"time"
)

// UnconfiguredProjectName is the sentinel name returned when no project is
// active yet.
const UnconfiguredProjectName = "Obra não configurada"

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type (
	// Date is a calendar date. The wrapped time is always midnight UTC.
	Date struct {
		time.Time
	}

	// Project is a single construction job. At most one project is active
	// at a time; the active one scopes every entry and aggregation.
	Project struct {
		ID         int64
		Name       string
		Budget     Money
		StartDate  Date
		PlannedEnd Date
		Active     bool
	}

	// Category labels entries. Categories referenced by entries are never
	// deleted, only deactivated.
	Category struct {
		ID          int64
		Name        string
		Description string
		Color       string
		Active      bool
	}

	// Entry is a single expense record. CategoryName and CategoryColor are
	// filled on reads that join the category.
	Entry struct {
		ID            int64
		ProjectID     int64
		CategoryID    int64
		CategoryName  string
		CategoryColor string
		Description   string
		Amount        Money
		Date          Date
		Notes         string
	}

	// Attachment is a file stored with its entry. Data holds the raw bytes.
	Attachment struct {
		ID        int64
		EntryID   int64
		Filename  string
		MimeType  string
		SizeBytes int64
		Data      []byte
	}

	// User exists for future authorization. No authorization rule is
	// enforced in the core.
	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		Active       bool
	}
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in local time.
func Today() Date {
	y, m, d := time.Now().Date()
	return NewDate(y, int(m), d)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// ISO renders the date as YYYY-MM-DD, the wire format both backends share.
// The zero date renders as the empty string.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// ParseISODate parses a YYYY-MM-DD string. The empty string yields the zero
// date without error.
func ParseISODate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// Configured reports whether the project is a real row rather than the
// "unconfigured" sentinel.
func (p Project) Configured() bool {
	return p.ID != 0
}

// UnconfiguredProject is the sentinel returned when no active project
// exists. Aggregations over it are well-defined zeros.
func UnconfiguredProject() Project {
	return Project{Name: UnconfiguredProjectName}
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Invalid("name", ReasonEmptyField)
	}
	if len(p.Name) > 200 {
		return Invalid("name", "too-long")
	}
	if p.Budget.Cents <= 0 {
		return Invalid("budget", ReasonNonPositive)
	}
	if !p.StartDate.IsZero() && !p.PlannedEnd.IsZero() && p.PlannedEnd.Before(p.StartDate.Time) {
		return Invalid("planned_end_date", ReasonBadDateRange)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("name", ReasonEmptyField)
	}
	if len(c.Name) > 100 {
		return Invalid("name", "too-long")
	}
	if !colorPattern.MatchString(c.Color) {
		return Invalid("color", ReasonBadColor)
	}
	return nil
}

// Validate checks the entry's own invariants. Referential existence of the
// project and category is checked by the repository inside the write
// transaction. A future entry_date is accepted here: the UI forbids it but
// the database is the source of truth.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return Invalid("description", ReasonEmptyField)
	}
	if e.Amount.Cents <= 0 {
		return Invalid("amount", ReasonNonPositive)
	}
	if e.Date.IsZero() {
		return Invalid("entry_date", ReasonEmptyField)
	}
	if e.ProjectID <= 0 {
		return Invalid("project_id", ReasonMissingFK)
	}
	if e.CategoryID <= 0 {
		return Invalid("category_id", ReasonMissingFK)
	}
	return nil
}
