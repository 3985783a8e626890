// Package backend opens the store.Store implementation selected by a database url.
package backend

import (
	"context"
	"fmt"
	"strings"

	"pricepulse-backend/internal/store"
	"pricepulse-backend/internal/store/pgstore"
	"pricepulse-backend/internal/store/sqlstore"
)

type Kind int

const (
	KIND_SQLITE Kind = iota
	KIND_LIBSQL
	KIND_POSTGRES
)

func (k Kind) String() string {
	switch k {
	case KIND_SQLITE:
		return "sqlite"
	case KIND_LIBSQL:
		return "libsql"
	case KIND_POSTGRES:
		return "postgres"
	}
	return "unknown"
}

// Resolve determines the backend of `databaseUrl` and the data source name handed to its driver.
//
//   - sqlite:///<path> (relative), sqlite:////<path> (absolute), sqlite://<path>, file:<path>,
//     :memory: and bare paths open a local sqlite database.
//   - libsql://, http:// and https:// open a remote libsql database.
//   - postgres:// and postgresql:// open a postgres database.
func Resolve(databaseUrl string) (Kind, string, error) {
	u := strings.TrimSpace(databaseUrl)
	if u == "" {
		return 0, "", fmt.Errorf("empty database url")
	}

	switch {
	case strings.HasPrefix(u, "sqlite:///"):
		return KIND_SQLITE, nonEmptyPath(strings.TrimPrefix(u, "sqlite:///")), nil
	case strings.HasPrefix(u, "sqlite://"):
		return KIND_SQLITE, nonEmptyPath(strings.TrimPrefix(u, "sqlite://")), nil
	case strings.HasPrefix(u, "file:"), u == ":memory:":
		return KIND_SQLITE, u, nil
	case strings.HasPrefix(u, "libsql://"),
		strings.HasPrefix(u, "http://"),
		strings.HasPrefix(u, "https://"):
		return KIND_LIBSQL, u, nil
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return KIND_POSTGRES, u, nil
	case strings.Contains(u, "://"):
		return 0, "", fmt.Errorf("unsupported database url scheme in '%s'", u)
	}
	return KIND_SQLITE, u, nil
}

func nonEmptyPath(path string) string {
	if path == "" {
		return ":memory:"
	}
	return path
}

// Open resolves `databaseUrl` and opens the matching store with its schema applied.
func Open(ctx context.Context, databaseUrl string) (store.Store, error) {
	kind, dsn, err := Resolve(databaseUrl)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KIND_POSTGRES:
		s, err := pgstore.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KIND_LIBSQL:
		database, err := sqlstore.OpenLibsql(ctx, dsn)
		if err != nil {
			return nil, err
		}
		s, err := sqlstore.New(ctx, database)
		if err != nil {
			database.Close()
			return nil, err
		}
		return s, nil
	default:
		database, err := sqlstore.OpenSqlite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		s, err := sqlstore.New(ctx, database)
		if err != nil {
			database.Close()
			return nil, err
		}
		return s, nil
	}
}
