package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DocumentSource = (*DocumentRepo)(nil)

// History feeds stored in history_entries.feed.
const (
	FeedComment    = "comment"
	FeedVersion    = "version"
	FeedAssignment = "assignment"
)

// DocumentRepo serves documents and their history feeds from SQLite. It is the
// document source for every type not backed by a remote system.
type DocumentRepo struct {
	db *DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// SaveDocument inserts or updates a document and replaces its field values.
func (r *DocumentRepo) SaveDocument(ctx context.Context, doc model.Document) (err error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save %s: %w", doc.Ref, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsert = `
		INSERT INTO documents (doc_type, name, owner) VALUES (?, ?, ?)
		ON CONFLICT(doc_type, name) DO UPDATE SET owner = excluded.owner, updated_at = CURRENT_TIMESTAMP
		RETURNING id`

	var id int64
	if err = tx.QueryRowContext(ctx, upsert, doc.Ref.Type, doc.Ref.Name, doc.Owner).Scan(&id); err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.Ref, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM document_values WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("clear values of %s: %w", doc.Ref, err)
	}
	for field, value := range doc.Values {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO document_values (document_id, field, value) VALUES (?, ?, ?)`,
			id, field, value,
		); err != nil {
			return fmt.Errorf("insert value %s of %s: %w", field, doc.Ref, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save %s: %w", doc.Ref, err)
	}
	return nil
}

// GetDocument returns the document with its field values, or
// model.ErrDocumentNotFound.
func (r *DocumentRepo) GetDocument(ctx context.Context, ref model.DocumentRef) (*model.Document, error) {
	id, owner, err := r.lookup(ctx, ref)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Reader.QueryContext(ctx, `SELECT field, value FROM document_values WHERE document_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("query values of %s: %w", ref, err)
	}
	defer rows.Close()

	doc := &model.Document{Ref: ref, Owner: owner, Values: make(map[string]string)}
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scan value of %s: %w", ref, err)
		}
		doc.Values[field] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate values of %s: %w", ref, err)
	}

	return doc, nil
}

// AddCommunication records an outbound message on the document.
func (r *DocumentRepo) AddCommunication(ctx context.Context, ref model.DocumentRef, c model.Communication, at time.Time) error {
	id, _, err := r.lookup(ctx, ref)
	if err != nil {
		return err
	}

	_, err = r.db.Writer.ExecContext(ctx,
		`INSERT INTO communications (document_id, sender, delivery_status, created_at) VALUES (?, ?, ?, ?)`,
		id, c.Sender, c.DeliveryStatus, formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("add communication to %s: %w", ref, err)
	}
	return nil
}

// AddHistoryEntry appends an entry to one of the comment, version or
// assignment feeds.
func (r *DocumentRepo) AddHistoryEntry(ctx context.Context, ref model.DocumentRef, feed string, e model.HistoryEntry) error {
	id, _, err := r.lookup(ctx, ref)
	if err != nil {
		return err
	}

	at := e.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}

	_, err = r.db.Writer.ExecContext(ctx,
		`INSERT INTO history_entries (document_id, feed, owner, created_at) VALUES (?, ?, ?, ?)`,
		id, feed, e.Owner, formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("add %s entry to %s: %w", feed, ref, err)
	}
	return nil
}

// GetHistory returns every history feed of the document, oldest first.
func (r *DocumentRepo) GetHistory(ctx context.Context, ref model.DocumentRef) (*model.DocumentHistory, error) {
	id, _, err := r.lookup(ctx, ref)
	if err != nil {
		return nil, err
	}

	history := &model.DocumentHistory{}

	comms, err := r.db.Reader.QueryContext(ctx,
		`SELECT sender, delivery_status FROM communications WHERE document_id = ? ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("query communications of %s: %w", ref, err)
	}
	defer comms.Close()

	for comms.Next() {
		var c model.Communication
		if err := comms.Scan(&c.Sender, &c.DeliveryStatus); err != nil {
			return nil, fmt.Errorf("scan communication of %s: %w", ref, err)
		}
		history.Communications = append(history.Communications, c)
	}
	if err := comms.Err(); err != nil {
		return nil, fmt.Errorf("iterate communications of %s: %w", ref, err)
	}

	entries, err := r.db.Reader.QueryContext(ctx,
		`SELECT feed, owner, created_at FROM history_entries WHERE document_id = ? ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("query history of %s: %w", ref, err)
	}
	defer entries.Close()

	for entries.Next() {
		feed, entry, err := scanHistoryEntry(entries)
		if err != nil {
			return nil, fmt.Errorf("scan history of %s: %w", ref, err)
		}
		switch feed {
		case FeedComment:
			history.Comments = append(history.Comments, entry)
		case FeedVersion:
			history.Versions = append(history.Versions, entry)
		case FeedAssignment:
			history.Assignments = append(history.Assignments, entry)
		}
	}
	if err := entries.Err(); err != nil {
		return nil, fmt.Errorf("iterate history of %s: %w", ref, err)
	}

	return history, nil
}

func (r *DocumentRepo) lookup(ctx context.Context, ref model.DocumentRef) (int64, string, error) {
	var (
		id    int64
		owner string
	)
	err := r.db.Reader.QueryRowContext(ctx,
		`SELECT id, owner FROM documents WHERE doc_type = ? AND name = ?`,
		ref.Type, ref.Name,
	).Scan(&id, &owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", fmt.Errorf("%s: %w", ref, model.ErrDocumentNotFound)
	}
	if err != nil {
		return 0, "", fmt.Errorf("look up %s: %w", ref, err)
	}
	return id, owner, nil
}

func scanHistoryEntry(s scanner) (string, model.HistoryEntry, error) {
	var (
		feed      string
		entry     model.HistoryEntry
		createdAt string
	)
	if err := s.Scan(&feed, &entry.Owner, &createdAt); err != nil {
		return "", model.HistoryEntry{}, err
	}

	var err error
	entry.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return "", model.HistoryEntry{}, fmt.Errorf("parse created_at: %w", err)
	}
	return feed, entry, nil
}
