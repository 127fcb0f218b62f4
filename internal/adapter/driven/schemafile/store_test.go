package schemafile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

const registryYAML = `
doctypes:
  - name: Task
    fields:
      - fieldname: subject
        fieldtype: Data
      - fieldname: reviewer
        fieldtype: Link
        options: User
      - fieldname: project
        fieldtype: Link
        options: Project
      - fieldname: approver_email
        fieldtype: Data
        references_user: true
  - name: Note
`

func TestParse(t *testing.T) {
	s := New()
	require.NoError(t, s.Parse([]byte(registryYAML)))
	assert.Equal(t, 2, s.DocumentTypes())

	schema, err := s.GetSchema(context.Background(), "Task")
	require.NoError(t, err)
	require.Len(t, schema.Fields, 4)
	assert.Equal(t, model.FieldDescriptor{
		FieldName: "reviewer", FieldType: "Link", ReferencedEntity: "User", ReferencesUser: true,
	}, schema.Fields[1])
	assert.False(t, schema.Fields[2].ReferencesUser)

	userFields := schema.UserFields()
	require.Len(t, userFields, 2)
	assert.Equal(t, "approver_email", userFields[1].FieldName)

	note, err := s.GetSchema(context.Background(), "Note")
	require.NoError(t, err)
	assert.Empty(t, note.Fields)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "doctypes: [unclosed"},
		{"missing name", "doctypes:\n  - fields: []\n"},
		{"missing fieldname", "doctypes:\n  - name: Task\n    fields:\n      - fieldtype: Data\n"},
		{"duplicate field", "doctypes:\n  - name: Task\n    fields:\n      - fieldname: a\n      - fieldname: a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, New().Parse([]byte(tt.yaml)))
		})
	}
}

func TestGetSchema_Unknown(t *testing.T) {
	_, err := New().GetSchema(context.Background(), "Invoice")
	assert.ErrorIs(t, err, model.ErrSchemaNotFound)
}

func TestGetSchema_ReturnsCopy(t *testing.T) {
	s := New()
	s.Register(model.Schema{DocumentType: "Task", Fields: []model.FieldDescriptor{{FieldName: "a"}}})

	first, err := s.GetSchema(context.Background(), "Task")
	require.NoError(t, err)
	first.Fields[0].FieldName = "mutated"

	second, err := s.GetSchema(context.Background(), "Task")
	require.NoError(t, err)
	assert.Equal(t, "a", second.Fields[0].FieldName)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(registryYAML), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.DocumentTypes())

	missing, err := Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, missing.DocumentTypes())

	require.NoError(t, os.WriteFile(path, []byte("doctypes: {"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}
