package testutil

import (
	"context"
	"testing"

	"pricepulse-backend/internal/components/telemetry"
	"pricepulse-backend/internal/store/sqlstore"
)

type ServiceParams struct {
	Name string
}

type ServiceResult struct {
	Store     sqlstore.Store
	Telemetry *telemetry.RecordingAPI
}

// SetupService creates an in-memory sqlite store and a recording telemetry API scoped to
// `params.Name`. Both are released when the test ends.
func SetupService(t testing.TB, params ServiceParams) ServiceResult {
	t.Helper()

	database, err := sqlstore.OpenSqlite(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	s, err := sqlstore.New(context.Background(), database)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		err := s.Close()
		if err != nil {
			t.Errorf("close test store for %s: %v", params.Name, err)
		}
	})

	return ServiceResult{
		Store:     s,
		Telemetry: telemetry.NewRecordingAPI(),
	}
}
