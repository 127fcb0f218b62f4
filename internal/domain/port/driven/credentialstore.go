package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/pointspanel/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by every CredentialStore operation when
// POINTSPANEL_SECRET_KEY is unset.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set POINTSPANEL_SECRET_KEY")

// CredentialStore keeps service tokens (ledger, GitHub) encrypted at rest.
// Values cross this boundary in plaintext.
type CredentialStore interface {
	Set(ctx context.Context, service, plaintext string) error
	// Get returns ("", nil) when nothing is stored for service.
	Get(ctx context.Context, service string) (string, error)
	List(ctx context.Context) ([]model.Credential, error)
	Delete(ctx context.Context, service string) error
}
