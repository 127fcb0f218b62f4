package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

func TestDocumentRouter(t *testing.T) {
	local := &mockDocumentSource{doc: &model.Document{Owner: "local@example.com"}}
	pulls := &mockDocumentSource{doc: &model.Document{Owner: "octocat"}}

	router := NewDocumentRouter(local)
	router.Route("GitHub Pull Request", pulls)

	doc, err := router.GetDocument(context.Background(), model.DocumentRef{Type: "GitHub Pull Request", Name: "o/r#1"})
	require.NoError(t, err)
	assert.Equal(t, "octocat", doc.Owner)

	doc, err = router.GetDocument(context.Background(), taskRef)
	require.NoError(t, err)
	assert.Equal(t, "local@example.com", doc.Owner)

	_, err = router.GetHistory(context.Background(), taskRef)
	assert.NoError(t, err)
}

func TestDocumentRouter_NoFallback(t *testing.T) {
	router := NewDocumentRouter(nil)

	_, err := router.GetDocument(context.Background(), taskRef)
	assert.ErrorIs(t, err, model.ErrDocumentNotFound)

	_, err = router.GetHistory(context.Background(), taskRef)
	assert.ErrorIs(t, err, model.ErrDocumentNotFound)
}

func TestDirectoryChain(t *testing.T) {
	failing := &mockDirectory{err: errors.New("offline")}
	empty := &mockDirectory{names: map[string]string{}}
	named := &mockDirectory{names: map[string]string{"bob": "Bob Builder"}}

	tests := []struct {
		name    string
		chain   DirectoryChain
		want    string
		wantErr bool
	}{
		{"first non-empty wins", DirectoryChain{empty, named}, "Bob Builder", false},
		{"failure is skipped", DirectoryChain{failing, named}, "Bob Builder", false},
		{"unknown everywhere", DirectoryChain{empty, nil}, "", false},
		{"only failures", DirectoryChain{failing}, "", true},
		{"empty chain", DirectoryChain{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.chain.FullName(context.Background(), "bob")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

var _ driven.UserDirectory = (*mockDirectory)(nil)
