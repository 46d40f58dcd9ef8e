package storage

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"obra/internal/core"
	"obra/internal/log"
)

type attachmentRow struct {
	ID        int64  `db:"id"`
	EntryID   int64  `db:"entry_id"`
	Filename  string `db:"filename"`
	MimeType  string `db:"mime_type"`
	SizeBytes int64  `db:"size_bytes"`
	Data      []byte `db:"blob"`
}

func (r attachmentRow) toAttachment() core.Attachment {
	return core.Attachment{
		ID:        r.ID,
		EntryID:   r.EntryID,
		Filename:  r.Filename,
		MimeType:  r.MimeType,
		SizeBytes: r.SizeBytes,
		Data:      r.Data,
	}
}

// Attachments is the attachment repository. The ingestion policy (size cap,
// MIME allow-list) is enforced here, before anything reaches the database.
type Attachments struct {
	s      *Store
	logger *log.Logger
}

func NewAttachments(s *Store, logger *log.Logger) *Attachments {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Attachments{s: s, logger: logger.WithComponent(log.ComponentStorage)}
}

// Attach stores a file with an entry. When the declared MIME type is empty
// the content is sniffed before the allow-list check. size_bytes always
// matches the stored payload.
func (r *Attachments) Attach(ctx context.Context, entryID int64, filename, mimeType string, data []byte) (core.Attachment, error) {
	if mimeType == "" && len(data) > 0 {
		mimeType = http.DetectContentType(data)
	}
	a := core.Attachment{
		EntryID:   entryID,
		Filename:  filename,
		MimeType:  mimeType,
		SizeBytes: int64(len(data)),
		Data:      data,
	}
	if err := a.ValidatePolicy(); err != nil {
		return core.Attachment{}, err
	}

	err := r.s.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireRow(ctx, tx, r.s.Dialect, "entries", entryID, "entry_id"); err != nil {
			return err
		}
		ib := r.s.Dialect.Builder().
			Insert("attachments").
			Columns("entry_id", "filename", "mime_type", "size_bytes", "blob").
			Values(a.EntryID, a.Filename, a.MimeType, a.SizeBytes, a.Data)
		id, err := r.s.Dialect.InsertID(ctx, tx, ib)
		if err != nil {
			return err
		}
		a.ID = id
		return nil
	})
	if err != nil {
		return core.Attachment{}, wrapStorage("attach file", err)
	}

	r.logger.InfoContext(ctx, "Attachment stored",
		log.FieldAttachmentID, a.ID,
		log.FieldEntryID, entryID,
		"filename", a.Filename,
		"size_bytes", a.SizeBytes)
	return a, nil
}

// ListByEntry returns attachment metadata for an entry, without payloads.
func (r *Attachments) ListByEntry(ctx context.Context, entryID int64) ([]core.Attachment, error) {
	query, args, err := r.s.Dialect.Builder().
		Select("id", "entry_id", "filename", "mime_type", "size_bytes").
		From("attachments").
		Where(squirrel.Eq{"entry_id": entryID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, wrapStorage("build attachment query", err)
	}

	var rows []attachmentRow
	if err := r.s.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapStorage("list attachments", err)
	}
	out := make([]core.Attachment, len(rows))
	for i, row := range rows {
		out[i] = row.toAttachment()
	}
	return out, nil
}

// Read returns an attachment including its payload.
func (r *Attachments) Read(ctx context.Context, id int64) (core.Attachment, error) {
	query, args, err := r.s.Dialect.Builder().
		Select("id", "entry_id", "filename", "mime_type", "size_bytes", "blob").
		From("attachments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return core.Attachment{}, wrapStorage("build attachment query", err)
	}

	var row attachmentRow
	if err := r.s.DB.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Attachment{}, &core.NotFoundError{Entity: "attachment", ID: id}
		}
		return core.Attachment{}, wrapStorage("read attachment", err)
	}
	return row.toAttachment(), nil
}

// Remove deletes an attachment.
func (r *Attachments) Remove(ctx context.Context, id int64) error {
	err := r.s.WithTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := r.s.Dialect.Builder().
			Delete("attachments").
			Where(squirrel.Eq{"id": id}).
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &core.NotFoundError{Entity: "attachment", ID: id}
		}
		return nil
	})
	if err != nil {
		return wrapStorage("remove attachment", err)
	}
	r.logger.InfoContext(ctx, "Attachment removed", log.FieldAttachmentID, id)
	return nil
}
