package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/zorvex/zorvex-backend/internal/app/service"
)

// productColumns are the recognised header cells. Unknown columns are ignored.
var productColumns = []string{
	"name", "slug", "category", "description", "selling_price",
	"cost_price", "stock", "image_url", "tags", "published",
}

type productRow struct {
	Line         int
	Name         string
	Slug         string
	Category     string
	Description  string
	SellingPrice float64
	CostPrice    float64
	Stock        int
	ImageURL     string
	Tags         []string
	Published    bool
}

func (r productRow) input() service.ProductInput {
	return service.ProductInput{
		Name:         r.Name,
		Slug:         r.Slug,
		Description:  r.Description,
		SellingPrice: r.SellingPrice,
		CostPrice:    r.CostPrice,
		Stock:        r.Stock,
		ImageURL:     r.ImageURL,
		Tags:         r.Tags,
		Published:    r.Published,
	}
}

// readProductRows reads the first sheet. The first row names the columns;
// rows without a name, a category or a positive price are skipped.
func readProductRows(r io.Reader) ([]productRow, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	index := headerIndex(rows[0])
	var missing []string
	for _, required := range []string{"name", "category", "selling_price"} {
		if _, ok := index[required]; !ok {
			missing = append(missing, strconv.Quote(required))
		}
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("missing columns %s", strings.Join(missing, ", "))
	}

	var products []productRow
	seen := make(map[string]bool)
	skipped := 0
	for i, cells := range rows[1:] {
		cell := func(name string) string {
			col, ok := index[name]
			if !ok || col >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[col])
		}

		row := productRow{
			Line:        i + 2,
			Name:        cell("name"),
			Slug:        cell("slug"),
			Category:    cell("category"),
			Description: cell("description"),
			ImageURL:    cell("image_url"),
			Tags:        splitTags(cell("tags")),
			Published:   parseBool(cell("published"), true),
		}
		row.SellingPrice, _ = strconv.ParseFloat(cell("selling_price"), 64)
		row.CostPrice, _ = strconv.ParseFloat(cell("cost_price"), 64)
		row.Stock, _ = strconv.Atoi(cell("stock"))

		if row.Name == "" || row.Category == "" || row.SellingPrice <= 0 || row.Stock < 0 {
			skipped++
			continue
		}

		key := strings.ToLower(row.Name + "|" + row.Category)
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true
		products = append(products, row)
	}
	return products, skipped, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int)
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		name = strings.ReplaceAll(name, " ", "_")
		for _, known := range productColumns {
			if name == known {
				index[name] = i
			}
		}
	}
	return index
}

func splitTags(s string) []string {
	var tags []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func parseBool(s string, fallback bool) bool {
	switch strings.ToLower(s) {
	case "":
		return fallback
	case "yes", "y", "1", "true":
		return true
	}
	return false
}
