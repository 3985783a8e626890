// Package scrapers holds what every store extractor shares: the Extractor contract, price
// normalization and a polite http client.
package scrapers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

// Result is what an extractor read from a single product page.
type Result struct {
	// Store is the display name of the extractor (ex. "Amazon").
	Store string
	Title string
	// Price is 0 when no price could be read from the page.
	Price     float64
	SourceUrl string
}

// Extractor reads the title and price of a product page on one store.
//
// note: fault injection point
type Extractor interface {
	// Store returns the display name stamped onto results.
	Store() string
	// Fetch loads and parses the page at `url`. Every failure is returned as an *ExtractionError.
	Fetch(ctx context.Context, url string) (Result, error)
}

// ExtractionError is returned by an Extractor when a page could not be obtained or parsed.
type ExtractionError struct {
	Store string
	Url   string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s price from '%s': %v", e.Store, e.Url, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

var nonPriceChars = regexp.MustCompile(`[^0-9.]`)

// ParsePrice normalizes a displayed price by dropping everything but digits and dots. Text that
// does not parse afterwards ("", "1.2.3", "price unavailable") yields 0, a price that could not
// be read is not an error.
func ParsePrice(text string) float64 {
	cleaned := nonPriceChars.ReplaceAllString(text, "")
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return price
}

// FallbackTitle is the title used when a page has no readable title.
func FallbackTitle(store string) string {
	return store + " Product"
}
