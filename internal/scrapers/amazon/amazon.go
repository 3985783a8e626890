package amazon

import (
	"context"

	"pricepulse-backend/internal/components/assert"
	"pricepulse-backend/internal/components/telemetry"
	"pricepulse-backend/internal/scrapers"
)

const StoreName = "Amazon"

var selectors = scrapers.PageSelectors{
	Title: []string{"#productTitle"},
	// deals and regular listings render the price in different regions
	Price: []string{
		"#priceblock_ourprice",
		"#priceblock_dealprice",
		".a-price .a-offscreen",
	},
}

type Extractor struct {
	client *scrapers.Client
	tel    telemetry.API
}

func New(opts scrapers.Options, tel telemetry.API) (Extractor, error) {
	assert.NotNil(tel, "tel")
	tel = telemetry.NewScopedAPI("amazon", tel)

	client, err := scrapers.NewClient(opts, tel)
	if err != nil {
		return Extractor{}, err
	}
	return Extractor{client: client, tel: tel}, nil
}

func (Extractor) Store() string {
	return StoreName
}

func (e Extractor) Fetch(ctx context.Context, url string) (scrapers.Result, error) {
	return scrapers.ExtractPage(ctx, e.client, e.tel, StoreName, url, selectors)
}
