package sqlite

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pointspanel/internal/domain/port/driven"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func newTestCredentialRepo(t *testing.T, db *DB) *CredentialRepo {
	t.Helper()
	repo, err := NewCredentialRepo(db, testKey())
	require.NoError(t, err)
	return repo
}

func TestCredentialRepo_SetAndGet(t *testing.T) {
	repo := newTestCredentialRepo(t, setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, ServiceLedger, "api-key:api-secret"))

	val, err := repo.Get(ctx, ServiceLedger)
	require.NoError(t, err)
	assert.Equal(t, "api-key:api-secret", val)
}

func TestCredentialRepo_StoredEncrypted(t *testing.T) {
	db := setupTestDB(t)
	repo := newTestCredentialRepo(t, db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, ServiceGitHub, "ghp_secret"))

	var raw string
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT value FROM credentials WHERE service = ?`, ServiceGitHub).Scan(&raw))
	assert.NotContains(t, raw, "ghp_secret")
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	repo := newTestCredentialRepo(t, setupTestDB(t))

	val, err := repo.Get(context.Background(), ServiceGitHub)
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestCredentialRepo_UpsertOverwrites(t *testing.T) {
	repo := newTestCredentialRepo(t, setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, ServiceGitHub, "old-value"))
	require.NoError(t, repo.Set(ctx, ServiceGitHub, "new-value"))

	val, err := repo.Get(ctx, ServiceGitHub)
	require.NoError(t, err)
	assert.Equal(t, "new-value", val)
}

func TestCredentialRepo_ListAndDelete(t *testing.T) {
	repo := newTestCredentialRepo(t, setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, ServiceLedger, "l"))
	require.NoError(t, repo.Set(ctx, ServiceGitHub, "g"))

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, ServiceGitHub, creds[0].Service)
	assert.Equal(t, "g", creds[0].Value)
	assert.False(t, creds[0].UpdatedAt.IsZero())
	assert.Equal(t, ServiceLedger, creds[1].Service)

	require.NoError(t, repo.Delete(ctx, ServiceGitHub))

	creds, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, ServiceLedger, creds[0].Service)
}

func TestCredentialRepo_WrongKeyFailsToDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, newTestCredentialRepo(t, db).Set(ctx, ServiceLedger, "secret"))

	other, err := NewCredentialRepo(db, bytes.Repeat([]byte{0x07}, 32))
	require.NoError(t, err)

	_, err = other.Get(ctx, ServiceLedger)
	assert.Error(t, err)
}

func TestCredentialRepo_NoKey(t *testing.T) {
	repo, err := NewCredentialRepo(setupTestDB(t), nil)
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Set(ctx, ServiceLedger, "x"), driven.ErrEncryptionKeyNotSet)
	_, err = repo.Get(ctx, ServiceLedger)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
	_, err = repo.List(ctx)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
	assert.ErrorIs(t, repo.Delete(ctx, ServiceLedger), driven.ErrEncryptionKeyNotSet)
}

func TestNewCredentialRepo_RejectsShortKey(t *testing.T) {
	_, err := NewCredentialRepo(setupTestDB(t), []byte("short"))
	assert.Error(t, err)
}
