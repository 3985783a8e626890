// Package store defines the records of the price tracker and the interface of the record store.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrProductNotFound = errors.New("product not found")

// Product is a tracked item with one listing url per store key.
type Product struct {
	Id        string
	Name      string
	ImageUrl  string
	StoreUrls map[string]string
	CreatedAt time.Time
}

// Observation is a single price reading of a product on a store, observations are append-only.
type Observation struct {
	Id        int64
	ProductId string
	// Store is the display name declared by the extractor (ex. "Amazon"), not the registry key.
	Store string
	// Price is 0 when the page had no readable price.
	Price      float64
	ProductUrl string
	FetchedAt  time.Time
}

type CreateProductParams struct {
	// Id and CreatedAt are generated when left empty.
	Id        string
	Name      string
	ImageUrl  string
	StoreUrls map[string]string
	CreatedAt time.Time
}

type Store interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (Product, error)
	// GetProduct returns ErrProductNotFound when there is no product with the given id.
	GetProduct(ctx context.Context, id string) (Product, error)
	// ListProducts returns every product ordered by creation time, oldest first.
	ListProducts(ctx context.Context) ([]Product, error)
	// ListObservations returns the price history of a product, most recent first.
	ListObservations(ctx context.Context, productId string) ([]Observation, error)
	// InsertObservations persists every observation in a single transaction and returns them
	// with their generated ids. Nothing is written if any insert fails.
	InsertObservations(ctx context.Context, observations []Observation) ([]Observation, error)
	Close() error
}
