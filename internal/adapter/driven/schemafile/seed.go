package schemafile

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

// Seed is a batch of users and locally stored documents, as read from a seed
// file:
//
//	users:
//	  - user: bob@example.com
//	    full_name: Bob Smith
//	documents:
//	  - type: Task
//	    name: TASK-0001
//	    owner: alice@example.com
//	    values: {reviewer: bob@example.com}
//	    communications: [{sender: carol@example.com, status: Sent, at: 2024-05-01T10:00:00Z}]
//	    comments: [{owner: dave@example.com, at: 2024-05-02T09:00:00Z}]
type Seed struct {
	Users     []model.User
	Documents []SeedDocument
}

// SeedDocument is a document with its history feeds.
type SeedDocument struct {
	Document       model.Document
	Communications []SeedCommunication
	Comments       []model.HistoryEntry
	Versions       []model.HistoryEntry
	Assignments    []model.HistoryEntry
}

// SeedCommunication is a communication with its send time.
type SeedCommunication struct {
	model.Communication
	At time.Time
}

type seedFile struct {
	Users []struct {
		User     string `yaml:"user"`
		FullName string `yaml:"full_name"`
		Disabled bool   `yaml:"disabled"`
	} `yaml:"users"`
	Documents []struct {
		Type           string            `yaml:"type"`
		Name           string            `yaml:"name"`
		Owner          string            `yaml:"owner"`
		Values         map[string]string `yaml:"values"`
		Communications []struct {
			Sender string    `yaml:"sender"`
			Status string    `yaml:"status"`
			At     time.Time `yaml:"at"`
		} `yaml:"communications"`
		Comments    []seedEntry `yaml:"comments"`
		Versions    []seedEntry `yaml:"versions"`
		Assignments []seedEntry `yaml:"assignments"`
	} `yaml:"documents"`
}

type seedEntry struct {
	Owner string    `yaml:"owner"`
	At    time.Time `yaml:"at"`
}

// ReadSeed decodes a seed file. Unknown keys are rejected.
func ReadSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f seedFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("schemafile: decode seed: %w", err)
	}

	seed := &Seed{}
	for i, u := range f.Users {
		if u.User == "" {
			return nil, fmt.Errorf("schemafile: seed user %d has no id", i)
		}
		seed.Users = append(seed.Users, model.User{ID: u.User, FullName: u.FullName, Enabled: !u.Disabled})
	}

	for i, d := range f.Documents {
		if d.Type == "" || d.Name == "" {
			return nil, fmt.Errorf("schemafile: seed document %d needs type and name", i)
		}

		doc := SeedDocument{
			Document: model.Document{
				Ref:    model.DocumentRef{Type: d.Type, Name: d.Name},
				Owner:  d.Owner,
				Values: d.Values,
			},
			Comments:    toEntries(d.Comments),
			Versions:    toEntries(d.Versions),
			Assignments: toEntries(d.Assignments),
		}
		for _, c := range d.Communications {
			status := c.Status
			if status == "" {
				status = model.DeliveryStatusSent
			}
			doc.Communications = append(doc.Communications, SeedCommunication{
				Communication: model.Communication{Sender: c.Sender, DeliveryStatus: status},
				At:            c.At,
			})
		}
		seed.Documents = append(seed.Documents, doc)
	}
	return seed, nil
}

func toEntries(in []seedEntry) []model.HistoryEntry {
	out := make([]model.HistoryEntry, 0, len(in))
	for _, e := range in {
		out = append(out, model.HistoryEntry{Owner: e.Owner, CreatedAt: e.At})
	}
	return out
}
