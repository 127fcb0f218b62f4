package sqlite

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// memoryDSN names a shared-cache in-memory database after the test, escaped so
// subtest names cannot add query parameters.
func memoryDSN(t *testing.T) string {
	return "file:" + url.PathEscape(t.Name()) +
		"?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
}

// setupTestDB returns a migrated database private to the test.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := memoryDSN(t)

	writer, err := open(dsn, 1)
	require.NoError(t, err)
	reader, err := open(dsn, 4)
	require.NoError(t, err)

	db := &DB{Writer: writer, Reader: reader, path: dsn}
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(db.Writer))
	return db
}
