package scrapers

import (
	"context"

	"pricepulse-backend/internal/components/telemetry"
	"pricepulse-backend/pkg/htmlutil"
)

const (
	report_extractor_fetch = "extractor.fetch"
	report_extractor_price = "extractor.price"
)

// PageSelectors locate the title and the price on a product page. Each list is tried in order,
// the first selector with text wins.
type PageSelectors struct {
	Title []string
	Price []string
}

// ExtractPage loads `url` with `client` and reads the title and price described by `selectors`.
// A missing title falls back to FallbackTitle and a missing price reads as 0. Every failure to
// load the page is returned as an *ExtractionError.
func ExtractPage(
	ctx context.Context,
	client *Client,
	tel telemetry.API,
	store string,
	url string,
	selectors PageSelectors,
) (Result, error) {
	doc, err := client.GetDocument(ctx, url)
	if err != nil {
		return Result{}, &ExtractionError{Store: store, Url: url, Err: err}
	}

	title := htmlutil.FirstText(ctx, doc, selectors.Title...)
	if title == "" {
		title = FallbackTitle(store)
	}

	priceText := htmlutil.FirstText(ctx, doc, selectors.Price...)
	if priceText == "" {
		priceText = "0"
	}
	price := ParsePrice(priceText)
	if price == 0 {
		tel.ReportDebug(report_extractor_price, "no price on page", url, priceText)
	}

	tel.ReportDebug(report_extractor_fetch, url, title, price)
	return Result{
		Store:     store,
		Title:     title,
		Price:     price,
		SourceUrl: url,
	}, nil
}
