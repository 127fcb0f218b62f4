package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.DocumentSource = (*DocumentRouter)(nil)
	_ driven.UserDirectory  = DirectoryChain(nil)
)

// DocumentRouter dispatches document reads by document type, falling back to
// a default source for unregistered types.
type DocumentRouter struct {
	byType   map[string]driven.DocumentSource
	fallback driven.DocumentSource
}

// NewDocumentRouter creates a router with the given fallback source.
func NewDocumentRouter(fallback driven.DocumentSource) *DocumentRouter {
	return &DocumentRouter{
		byType:   make(map[string]driven.DocumentSource),
		fallback: fallback,
	}
}

// Route registers src for documentType.
func (r *DocumentRouter) Route(documentType string, src driven.DocumentSource) {
	r.byType[documentType] = src
}

func (r *DocumentRouter) sourceFor(documentType string) (driven.DocumentSource, error) {
	if src, ok := r.byType[documentType]; ok {
		return src, nil
	}
	if r.fallback == nil {
		return nil, fmt.Errorf("no document source for type %q: %w", documentType, model.ErrDocumentNotFound)
	}
	return r.fallback, nil
}

// GetDocument reads the document from the source registered for its type.
func (r *DocumentRouter) GetDocument(ctx context.Context, ref model.DocumentRef) (*model.Document, error) {
	src, err := r.sourceFor(ref.Type)
	if err != nil {
		return nil, err
	}
	return src.GetDocument(ctx, ref)
}

// GetHistory reads the history feeds from the source registered for its type.
func (r *DocumentRouter) GetHistory(ctx context.Context, ref model.DocumentRef) (*model.DocumentHistory, error) {
	src, err := r.sourceFor(ref.Type)
	if err != nil {
		return nil, err
	}
	return src.GetHistory(ctx, ref)
}

// DirectoryChain asks each directory in turn and returns the first non-empty
// name. An error is returned only when no directory produced a name.
type DirectoryChain []driven.UserDirectory

// FullName implements driven.UserDirectory.
func (c DirectoryChain) FullName(ctx context.Context, user string) (string, error) {
	var lastErr error
	for _, d := range c {
		if d == nil {
			continue
		}
		name, err := d.FullName(ctx, user)
		if err != nil {
			lastErr = err
			continue
		}
		if name != "" {
			return name, nil
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("resolve full name of %s: %w", user, lastErr)
	}
	return "", nil
}
