package flipkart

import (
	"context"

	"pricepulse-backend/internal/components/assert"
	"pricepulse-backend/internal/components/telemetry"
	"pricepulse-backend/internal/scrapers"
)

const StoreName = "Flipkart"

var selectors = scrapers.PageSelectors{
	Title: []string{"span.B_NuCI"},
	Price: []string{"div._30jeq3"},
}

type Extractor struct {
	client *scrapers.Client
	tel    telemetry.API
}

func New(opts scrapers.Options, tel telemetry.API) (Extractor, error) {
	assert.NotNil(tel, "tel")
	tel = telemetry.NewScopedAPI("flipkart", tel)

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
