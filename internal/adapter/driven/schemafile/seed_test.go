package schemafile

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

const seedYAML = `
users:
  - user: bob@example.com
    full_name: Bob Smith
  - user: old@example.com
    disabled: true
documents:
  - type: Task
    name: TASK-0001
    owner: alice@example.com
    values:
      reviewer: bob@example.com
    communications:
      - sender: carol@example.com
        at: 2024-05-01T10:00:00Z
      - sender: erin@example.com
        status: Draft
    comments:
      - owner: dave@example.com
        at: 2024-05-02T09:00:00Z
    versions:
      - owner: frank@example.com
    assignments:
      - owner: grace@example.com
`

func TestReadSeed(t *testing.T) {
	seed, err := ReadSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)

	assert.Equal(t, []model.User{
		{ID: "bob@example.com", FullName: "Bob Smith", Enabled: true},
		{ID: "old@example.com", Enabled: false},
	}, seed.Users)

	require.Len(t, seed.Documents, 1)
	doc := seed.Documents[0]
	assert.Equal(t, model.DocumentRef{Type: "Task", Name: "TASK-0001"}, doc.Document.Ref)
	assert.Equal(t, "alice@example.com", doc.Document.Owner)
	assert.Equal(t, "bob@example.com", doc.Document.Value("reviewer"))

	require.Len(t, doc.Communications, 2)
	assert.Equal(t, model.DeliveryStatusSent, doc.Communications[0].DeliveryStatus)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), doc.Communications[0].At)
	assert.Equal(t, "Draft", doc.Communications[1].DeliveryStatus)

	assert.Equal(t, "dave@example.com", doc.Comments[0].Owner)
	assert.Equal(t, "frank@example.com", doc.Versions[0].Owner)
	assert.Equal(t, "grace@example.com", doc.Assignments[0].Owner)
}

func TestReadSeed_Empty(t *testing.T) {
	seed, err := ReadSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, seed.Users)
	assert.Empty(t, seed.Documents)
}

func TestReadSeed_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown key":     "documents:\n  - type: Task\n    name: T\n    colour: red\n",
		"missing name":    "documents:\n  - type: Task\n",
		"user without id": "users:\n  - full_name: Nobody\n",
		"malformed yaml":  "users: [",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadSeed(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}
