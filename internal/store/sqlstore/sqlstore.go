// Package sqlstore implements store.Store on top of database/sql for sqlite and libsql.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pricepulse-backend/internal/components/assert"
	"pricepulse-backend/internal/store"
	"pricepulse-backend/internal/store/sqlstore/db"

	"github.com/google/uuid"
)

type Store struct {
	db     *sql.DB
	qry    *db.Queries
	makeTx db.MakeTx
}

// New applies the schema to `database` and returns a Store that owns it.
func New(ctx context.Context, database *sql.DB) (Store, error) {
	assert.NotNil(database, "database")

	_, err := database.ExecContext(ctx, db.Schema)
	if err != nil {
		return Store{}, fmt.Errorf("apply schema: %w", err)
	}
	return Store{
		db:     database,
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
	}, nil
}

func fromUnix(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}

func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func productFromRow(row db.Product) store.Product {
	return store.Product{
		Id:        row.ID,
		Name:      row.Name,
		ImageUrl:  row.ImageUrl.String,
		StoreUrls: store.ParseStoreUrls(row.StoreUrls),
		CreatedAt: fromUnix(row.CreatedAt),
	}
}

func (s Store) CreateProduct(ctx context.Context, params store.CreateProductParams) (store.Product, error) {
	if params.Id == "" {
		params.Id = uuid.NewString()
	}
	if params.CreatedAt.IsZero() {
		params.CreatedAt = time.Now()
	}
	if params.StoreUrls == nil {
		params.StoreUrls = map[string]string{}
	}

	err := s.qry.CreateProduct(ctx, db.CreateProductParams{
		ID:        params.Id,
		Name:      params.Name,
		ImageUrl:  sql.NullString{String: params.ImageUrl, Valid: params.ImageUrl != ""},
		StoreUrls: store.EncodeStoreUrls(params.StoreUrls),
		CreatedAt: toUnix(params.CreatedAt),
	})
	if err != nil {
		return store.Product{}, fmt.Errorf("create product: %w", err)
	}

	return store.Product{
		Id:        params.Id,
		Name:      params.Name,
		ImageUrl:  params.ImageUrl,
		StoreUrls: params.StoreUrls,
		CreatedAt: fromUnix(toUnix(params.CreatedAt)),
	}, nil
}

func (s Store) GetProduct(ctx context.Context, id string) (store.Product, error) {
	row, err := s.qry.GetProduct(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Product{}, store.ErrProductNotFound
	}
	if err != nil {
		return store.Product{}, fmt.Errorf("get product: %w", err)
	}
	return productFromRow(row), nil
}

func (s Store) ListProducts(ctx context.Context) ([]store.Product, error) {
	rows, err := s.qry.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]store.Product, len(rows))
	for i, r := range rows {
		out[i] = productFromRow(r)
	}
	return out, nil
}

func (s Store) ListObservations(ctx context.Context, productId string) ([]store.Observation, error) {
	rows, err := s.qry.ListStorePrices(ctx, productId)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	out := make([]store.Observation, len(rows))
	for i, r := range rows {
		out[i] = store.Observation{
			Id:         r.ID,
			ProductId:  r.ProductID,
			Store:      r.Store,
			Price:      r.Price,
			ProductUrl: r.ProductUrl,
			FetchedAt:  fromUnix(r.FetchedAt),
		}
	}
	return out, nil
}

func (s Store) InsertObservations(ctx context.Context, observations []store.Observation) ([]store.Observation, error) {
	if len(observations) == 0 {
		return []store.Observation{}, nil
	}

	txqry, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("insert observations: %w", err)
	}
	defer discard()

	out := make([]store.Observation, len(observations))
	for i, o := range observations {
		id, err := txqry.CreateStorePrice(ctx, db.CreateStorePriceParams{
			ProductID:  o.ProductId,
			Store:      o.Store,
			Price:      o.Price,
			ProductUrl: o.ProductUrl,
			FetchedAt:  toUnix(o.FetchedAt),
		})
		if err != nil {
			return nil, fmt.Errorf("insert observation for '%s' (%s): %w", o.ProductId, o.Store, err)
		}
		o.Id = id
		o.FetchedAt = fromUnix(toUnix(o.FetchedAt))
		out[i] = o
	}

	err = commit()
	if err != nil {
		return nil, fmt.Errorf("insert observations: commit: %w", err)
	}
	return out, nil
}

func (s Store) Close() error {
	return s.db.Close()
}
