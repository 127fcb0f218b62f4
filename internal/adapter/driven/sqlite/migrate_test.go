package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, RunMigrations(db.Writer))

	version, dirty, err := SchemaVersion(db.Writer)
	require.NoError(t, err)
	assert.Equal(t, uint(3), version)
	assert.False(t, dirty)
}

func TestSchemaVersion_FreshDatabase(t *testing.T) {
	writer, err := open(memoryDSN(t), 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	version, dirty, err := SchemaVersion(writer)
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)
}
