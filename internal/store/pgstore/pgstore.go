// Package pgstore implements store.Store on postgres through a pgx connection pool.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"pricepulse-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var Schema string

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the postgres database at `dsn` and applies the schema.
func Open(ctx context.Context, dsn string) (Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return Store{}, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 4
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return Store{}, fmt.Errorf("connect postgres: %w", err)
	}
	s, err := New(ctx, pool)
	if err != nil {
		pool.Close()
		return Store{}, err
	}
	return s, nil
}

// New applies the schema through `pool` and returns a Store that owns it.
func New(ctx context.Context, pool *pgxpool.Pool) (Store, error) {
	_, err := pool.Exec(ctx, Schema)
	if err != nil {
		return Store{}, fmt.Errorf("apply schema: %w", err)
	}
	return Store{pool: pool}, nil
}

const productColumns = `id, name, coalesce(image_url, ''), store_urls, created_at`

func scanProduct(row pgx.Row) (store.Product, error) {
	var p store.Product
	var storeUrls string
	err := row.Scan(&p.Id, &p.Name, &p.ImageUrl, &storeUrls, &p.CreatedAt)
	if err != nil {
		return store.Product{}, err
	}
	p.StoreUrls = store.ParseStoreUrls(storeUrls)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
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
	var imageUrl *string
	if params.ImageUrl != "" {
		imageUrl = &params.ImageUrl
	}

	row := s.pool.QueryRow(
		ctx,
		`insert into products (id, name, image_url, store_urls, created_at)
		values ($1, $2, $3, $4, $5)
		returning `+productColumns,
		params.Id, params.Name, imageUrl, store.EncodeStoreUrls(params.StoreUrls), params.CreatedAt.UTC(),
	)
	p, err := scanProduct(row)
	if err != nil {
		return store.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s Store) GetProduct(ctx context.Context, id string) (store.Product, error) {
	row := s.pool.QueryRow(ctx, `select `+productColumns+` from products where id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Product{}, store.ErrProductNotFound
	}
	if err != nil {
		return store.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s Store) ListProducts(ctx context.Context) ([]store.Product, error) {
	rows, err := s.pool.Query(ctx, `select `+productColumns+` from products order by created_at asc, id asc`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []store.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (s Store) ListObservations(ctx context.Context, productId string) ([]store.Observation, error) {
	rows, err := s.pool.Query(
		ctx,
		`select id, product_id, store, price, product_url, fetched_at from store_prices
		where product_id = $1
		order by fetched_at desc, id desc`,
		productId,
	)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	defer rows.Close()

	out := []store.Observation{}
	for rows.Next() {
		var o store.Observation
		err := rows.Scan(&o.Id, &o.ProductId, &o.Store, &o.Price, &o.ProductUrl, &o.FetchedAt)
		if err != nil {
			return nil, fmt.Errorf("list observations: %w", err)
		}
		o.FetchedAt = o.FetchedAt.UTC()
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	return out, nil
}

func (s Store) InsertObservations(ctx context.Context, observations []store.Observation) ([]store.Observation, error) {
	if len(observations) == 0 {
		return []store.Observation{}, nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("insert observations: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b := &pgx.Batch{}
	for _, o := range observations {
		b.Queue(
			`insert into store_prices (product_id, store, price, product_url, fetched_at)
			values ($1, $2, $3, $4, $5)
			returning id, fetched_at`,
			o.ProductId, o.Store, o.Price, o.ProductUrl, o.FetchedAt.UTC(),
		)
	}

	out := make([]store.Observation, len(observations))
	br := tx.SendBatch(ctx, b)
	for i, o := range observations {
		err := br.QueryRow().Scan(&o.Id, &o.FetchedAt)
		if err != nil {
			_ = br.Close()
			return nil, fmt.Errorf("insert observation for '%s' (%s): %w", o.ProductId, o.Store, err)
		}
		o.FetchedAt = o.FetchedAt.UTC()
		out[i] = o
	}
	err = br.Close()
	if err != nil {
		return nil, fmt.Errorf("insert observations: %w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, fmt.Errorf("insert observations: commit: %w", err)
	}
	return out, nil
}

func (s Store) Close() error {
	s.pool.Close()
	return nil
}
