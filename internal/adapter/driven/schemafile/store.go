// Package schemafile serves document schemas from a YAML registry file.
package schemafile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SchemaStore = (*Store)(nil)

// fileSchema is one document type in the registry file.
type fileSchema struct {
	Name   string      `yaml:"name"`
	Fields []fileField `yaml:"fields"`
}

type fileField struct {
	FieldName string `yaml:"fieldname"`
	FieldType string `yaml:"fieldtype"`
	Options   string `yaml:"options"`
	// ReferencesUser overrides the Link-to-User inference when set.
	ReferencesUser *bool `yaml:"references_user"`
}

type registryFile struct {
	DocTypes []fileSchema `yaml:"doctypes"`
}

// userEntity is the entity a Link field must reference to name a user.
const userEntity = "User"

// Store is an in-memory schema registry.
type Store struct {
	mu      sync.RWMutex
	schemas map[string]model.Schema
}

// New returns an empty Store.
func New() *Store {
	return &Store{schemas: make(map[string]model.Schema)}
}

// Load reads the registry at path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	s := New()
	if strings.TrimSpace(path) == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("schemafile: read %s: %w", path, err)
	}

	if err := s.Parse(data); err != nil {
		return nil, fmt.Errorf("schemafile: %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a registry payload and registers every document type in it.
func (s *Store) Parse(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var reg registryFile
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return fmt.Errorf("decode registry: %w", err)
	}

	for i, dt := range reg.DocTypes {
		schema, err := dt.toModel()
		if err != nil {
			return fmt.Errorf("doctypes[%d]: %w", i, err)
		}
		s.Register(schema)
	}
	return nil
}

// Register adds or replaces the schema of a document type.
func (s *Store) Register(schema model.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[schema.DocumentType] = schema
}

// GetSchema returns the schema of documentType or model.ErrSchemaNotFound.
func (s *Store) GetSchema(_ context.Context, documentType string) (*model.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schema, ok := s.schemas[documentType]
	if !ok {
		return nil, fmt.Errorf("%q: %w", documentType, model.ErrSchemaNotFound)
	}
	fields := make([]model.FieldDescriptor, len(schema.Fields))
	copy(fields, schema.Fields)
	schema.Fields = fields
	return &schema, nil
}

// DocumentTypes returns the number of registered types.
func (s *Store) DocumentTypes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.schemas)
}

func (f fileSchema) toModel() (model.Schema, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return model.Schema{}, errors.New("name is required")
	}

	schema := model.Schema{DocumentType: name}
	seen := make(map[string]bool, len(f.Fields))
	for _, ff := range f.Fields {
		fieldName := strings.TrimSpace(ff.FieldName)
		if fieldName == "" {
			return model.Schema{}, fmt.Errorf("%s: field without fieldname", name)
		}
		if seen[fieldName] {
			return model.Schema{}, fmt.Errorf("%s: duplicate field %q", name, fieldName)
		}
		seen[fieldName] = true

		refsUser := ff.FieldType == "Link" && ff.Options == userEntity
		if ff.ReferencesUser != nil {
			refsUser = *ff.ReferencesUser
		}

		schema.Fields = append(schema.Fields, model.FieldDescriptor{
			FieldName:        fieldName,
			FieldType:        ff.FieldType,
			ReferencedEntity: ff.Options,
			ReferencesUser:   refsUser,
		})
	}
	return schema, nil
}
