package model

import "fmt"

// DocumentRef identifies a document by type and name.
type DocumentRef struct {
	Type string
	Name string
}

// String returns "Type/Name".
func (r DocumentRef) String() string {
	return fmt.Sprintf("%s/%s", r.Type, r.Name)
}

// Document holds the current field values of a document.
type Document struct {
	Ref    DocumentRef
	Owner  string
	Values map[string]string // Keyed by field name.
}

// Value returns the value of the named field, or "".
func (d Document) Value(field string) string {
	if d.Values == nil {
		return ""
	}
	return d.Values[field]
}

// FieldDescriptor describes one field of a document type.
type FieldDescriptor struct {
	FieldName        string
	FieldType        string // e.g. "Data", "Link", "Select".
	ReferencedEntity string // Target type for "Link" fields.
	ReferencesUser   bool
}

// Schema is the explicit field list of a document type.
type Schema struct {
	DocumentType string
	Fields       []FieldDescriptor
}

// UserFields returns the fields that reference a user, in schema order.
func (s Schema) UserFields() []FieldDescriptor {
	var fields []FieldDescriptor
	for _, f := range s.Fields {
		if f.ReferencesUser {
			fields = append(fields, f)
		}
	}
	return fields
}
