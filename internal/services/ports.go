package services

import (
	"context"

	"obra/internal/core"
	"obra/internal/storage"
)

// The interfaces below are the seams a front end or report generator plugs
// into. They are satisfied by the repositories and by Reports; consumers
// should depend on these rather than on the concrete types.

type EntryWriter interface {
	Insert(ctx context.Context, e core.Entry) (core.Entry, error)
	Update(ctx context.Context, id int64, categoryID int64, description string, amount core.Money, date core.Date, notes string) error
	Delete(ctx context.Context, id int64) error
}

type EntryReader interface {
	Get(ctx context.Context, id int64) (core.Entry, error)
	ListByProject(ctx context.Context, projectID int64) ([]core.Entry, error)
	ListByPeriod(ctx context.Context, projectID int64, from, to core.Date) ([]core.Entry, error)
}

type CategoryAdmin interface {
	ListActive(ctx context.Context) ([]core.Category, error)
	ListAll(ctx context.Context) ([]core.Category, error)
	Create(ctx context.Context, name, description, color string) (core.Category, error)
	Update(ctx context.Context, id int64, name, description, color string) error
	SetActive(ctx context.Context, id int64, active bool) error
}

type ProjectAdmin interface {
	GetActive(ctx context.Context) (core.Project, error)
	UpsertActive(ctx context.Context, name string, budget core.Money, start, plannedEnd core.Date) (core.Project, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type AttachmentStore interface {
	Attach(ctx context.Context, entryID int64, filename, mimeType string, data []byte) (core.Attachment, error)
	ListByEntry(ctx context.Context, entryID int64) ([]core.Attachment, error)
	Read(ctx context.Context, id int64) (core.Attachment, error)
	Remove(ctx context.Context, id int64) error
}

type DashboardReader interface {
	Dashboard(ctx context.Context) (Dashboard, error)
	MonthlySeries(ctx context.Context) ([]MonthPoint, error)
	DailySeries(ctx context.Context, from, to core.Date) ([]DayPoint, error)
	TopEntries(ctx context.Context, n int) ([]core.Entry, error)
}

var (
	_ EntryWriter     = (*storage.Entries)(nil)
	_ EntryReader     = (*storage.Entries)(nil)
	_ CategoryAdmin   = (*storage.Categories)(nil)
	_ ProjectAdmin    = (*storage.Projects)(nil)
	_ AttachmentStore = (*storage.Attachments)(nil)
	_ DashboardReader = (*Reports)(nil)
)
