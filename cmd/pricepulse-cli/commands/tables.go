package commands

import (
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"pricepulse-backend/internal/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func renderProducts(out io.Writer, products []store.Product) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Id", "Name", "Stores", "Created"})
	for _, p := range products {
		keys := make([]string, 0, len(p.StoreUrls))
		for key := range p.StoreUrls {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		t.AppendRow(table.Row{p.Id, p.Name, strings.Join(keys, ", "), p.CreatedAt.Format(time.DateTime)})
	}
	t.Render()
}

func renderObservations(out io.Writer, observations []store.Observation) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Store", "Price", "Url", "Fetched"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Price", Align: text.AlignRight},
	})
	for _, o := range observations {
		t.AppendRow(table.Row{o.Store, formatPrice(o.Price), o.ProductUrl, o.FetchedAt.Format(time.DateTime)})
	}
	if len(observations) == 0 {
		t.AppendFooter(table.Row{"no prices yet"})
	}
	t.Render()
}

func formatPrice(price float64) string {
	if price == 0 {
		return "n/a"
	}
	return strconv.FormatFloat(price, 'f', 2, 64)
}
