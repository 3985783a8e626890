package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pricepulse-backend/internal/store"
)

const Disclaimer = "Prices are scraped from public listings and may change. Use responsibly."

type CreateProductRequest struct {
	Name      string            `json:"name"`
	ImageUrl  *string           `json:"image_url"`
	StoreUrls map[string]string `json:"store_urls"`
}

func (r CreateProductRequest) Validate() error {
	var errs []error
	if utf8.RuneCountInString(r.Name) < 2 {
		errs = append(errs, errors.New("name must be at least 2 characters"))
	}
	if len(r.StoreUrls) == 0 {
		errs = append(errs, errors.New("store_urls must contain at least one store"))
	}
	for key, url := range r.StoreUrls {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, errors.New("store_urls keys must not be empty"))
		}
		if strings.TrimSpace(url) == "" {
			errs = append(errs, fmt.Errorf("store_urls.%s must not be empty", key))
		}
	}
	return errors.Join(errs...)
}

type StorePriceResponse struct {
	Id         int64     `json:"id"`
	ProductId  string    `json:"product_id"`
	Store      string    `json:"store"`
	Price      float64   `json:"price"`
	ProductUrl string    `json:"product_url"`
	FetchedAt  time.Time `json:"fetched_at"`
}

type ProductResponse struct {
	Id         string            `json:"id"`
	Name       string            `json:"name"`
	ImageUrl   *string           `json:"image_url"`
	CreatedAt  time.Time         `json:"created_at"`
	StoreUrls  map[string]string `json:"store_urls"`
	Disclaimer string            `json:"disclaimer"`
}

type ProductDetailResponse struct {
	ProductResponse
	LatestPrices []StorePriceResponse `json:"latest_prices"`
	// Warnings lists store keys that were ignored, only set on creation.
	Warnings []string `json:"warnings,omitempty"`
}

type PriceHistoryResponse struct {
	ProductId  string               `json:"product_id"`
	History    []StorePriceResponse `json:"history"`
	Disclaimer string               `json:"disclaimer"`
}

func toProductResponse(p store.Product) ProductResponse {
	var imageUrl *string
	if p.ImageUrl != "" {
		imageUrl = &p.ImageUrl
	}
	storeUrls := p.StoreUrls
	if storeUrls == nil {
		storeUrls = map[string]string{}
	}
	return ProductResponse{
		Id:         p.Id,
		Name:       p.Name,
		ImageUrl:   imageUrl,
		CreatedAt:  p.CreatedAt,
		StoreUrls:  storeUrls,
		Disclaimer: Disclaimer,
	}
}

func toStorePriceResponses(observations []store.Observation) []StorePriceResponse {
	out := make([]StorePriceResponse, len(observations))
	for i, o := range observations {
		out[i] = StorePriceResponse{
			Id:         o.Id,
			ProductId:  o.ProductId,
			Store:      o.Store,
			Price:      o.Price,
			ProductUrl: o.ProductUrl,
			FetchedAt:  o.FetchedAt,
		}
	}
	return out
}
