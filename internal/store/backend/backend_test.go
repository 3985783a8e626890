package backend

import (
	"context"
	"path/filepath"
	"testing"

	"pricepulse-backend/internal/store"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		url  string
		kind Kind
		dsn  string
	}{
		{"sqlite://./pricepulse.db", KIND_SQLITE, "./pricepulse.db"},
		{"sqlite:///./pricepulse.db", KIND_SQLITE, "./pricepulse.db"},
		{"sqlite:////var/lib/pricepulse.db", KIND_SQLITE, "/var/lib/pricepulse.db"},
		{"sqlite://:memory:", KIND_SQLITE, ":memory:"},
		{"sqlite://", KIND_SQLITE, ":memory:"},
		{":memory:", KIND_SQLITE, ":memory:"},
		{"file:test.db?cache=shared", KIND_SQLITE, "file:test.db?cache=shared"},
		{"data/pricepulse.db", KIND_SQLITE, "data/pricepulse.db"},
		{"libsql://db.turso.io?authToken=abc", KIND_LIBSQL, "libsql://db.turso.io?authToken=abc"},
		{"http://127.0.0.1:8080", KIND_LIBSQL, "http://127.0.0.1:8080"},
		{"postgres://u:p@localhost/db", KIND_POSTGRES, "postgres://u:p@localhost/db"},
		{"postgresql://localhost/db", KIND_POSTGRES, "postgresql://localhost/db"},
	}
	for _, c := range cases {
		kind, dsn, err := Resolve(c.url)
		require.NoError(t, err, c.url)
		require.Equal(t, c.kind, kind, c.url)
		require.Equal(t, c.dsn, dsn, c.url)
	}

	_, _, err := Resolve("mysql://localhost/db")
	require.Error(t, err)
	_, _, err = Resolve("  ")
	require.Error(t, err)
}

func TestOpenSqlite(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "sqlite:///"+filepath.Join(t.TempDir(), "pricepulse.db"))
	require.NoError(t, err)
	defer s.Close()

	p, err := s.CreateProduct(ctx, store.CreateProductParams{Name: "Camera"})
	require.NoError(t, err)
	got, err := s.GetProduct(ctx, p.Id)
	require.NoError(t, err)
	require.Equal(t, "Camera", got.Name)
}
