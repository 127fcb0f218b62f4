package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ericfisherdev/pointspanel/internal/adapter/driven/schemafile"
	sqliteadapter "github.com/ericfisherdev/pointspanel/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

var (
	_ documentWriter = (*sqliteadapter.DocumentRepo)(nil)
	_ userWriter     = (*sqliteadapter.UserRepo)(nil)
)

// documentWriter is the write side of the local document store.
type documentWriter interface {
	SaveDocument(ctx context.Context, doc model.Document) error
	AddCommunication(ctx context.Context, ref model.DocumentRef, c model.Communication, at time.Time) error
	AddHistoryEntry(ctx context.Context, ref model.DocumentRef, feed string, e model.HistoryEntry) error
}

type userWriter interface {
	Upsert(ctx context.Context, u model.User) error
}

// runImport loads a seed file into the local store.
func runImport(ctx context.Context, db *sqliteadapter.DB, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: pointspanel import <seed.yaml>")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	seed, err := schemafile.ReadSeed(f)
	if err != nil {
		return err
	}
	return applySeed(ctx, seed, sqliteadapter.NewDocumentRepo(db), sqliteadapter.NewUserRepo(db))
}

func applySeed(ctx context.Context, seed *schemafile.Seed, docs documentWriter, users userWriter) error {
	for _, u := range seed.Users {
		if err := users.Upsert(ctx, u); err != nil {
			return err
		}
	}

	for _, d := range seed.Documents {
		ref := d.Document.Ref
		if err := docs.SaveDocument(ctx, d.Document); err != nil {
			return err
		}
		for _, c := range d.Communications {
			if err := docs.AddCommunication(ctx, ref, c.Communication, c.At); err != nil {
				return err
			}
		}
		feeds := []struct {
			name    string
			entries []model.HistoryEntry
		}{
			{sqliteadapter.FeedComment, d.Comments},
			{sqliteadapter.FeedVersion, d.Versions},
			{sqliteadapter.FeedAssignment, d.Assignments},
		}
		for _, feed := range feeds {
			for _, e := range feed.entries {
				if err := docs.AddHistoryEntry(ctx, ref, feed.name, e); err != nil {
					return err
				}
			}
		}
	}

	slog.Info("seed imported", "users", len(seed.Users), "documents", len(seed.Documents))
	return nil
}
