package network_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/breatheroute/tripplanner/internal/network"
)

func newSQLiteRepository(t *testing.T) *network.SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := network.OpenSQLite(ctx, filepath.Join(t.TempDir(), "network.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := network.NewSQLiteRepository(db)
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	repositoryContract(t, newSQLiteRepository(t))
}

func TestSQLiteRepository_EnsureSchemaIdempotent(t *testing.T) {
	repo := newSQLiteRepository(t)
	require.NoError(t, repo.EnsureSchema(context.Background()))
}
