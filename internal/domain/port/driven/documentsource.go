package driven

import (
	"context"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

// DocumentSource defines the driven port for reading documents and their
// history feeds. Implementations return model.ErrDocumentNotFound when the
// document does not exist.
type DocumentSource interface {
	GetDocument(ctx context.Context, ref model.DocumentRef) (*model.Document, error)
	GetHistory(ctx context.Context, ref model.DocumentRef) (*model.DocumentHistory, error)
}

// SchemaStore defines the driven port for document type schemas.
// Implementations return model.ErrSchemaNotFound for unknown types.
type SchemaStore interface {
	GetSchema(ctx context.Context, documentType string) (*model.Schema, error)
}
