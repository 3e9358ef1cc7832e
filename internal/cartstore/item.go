package cartstore

// LineItem is one product entry in a cart. Display fields and Price are
// copied when the product is first added and never refreshed.
type LineItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
}

// Product is the add-time snapshot of a catalogue entry.
type Product struct {
	ID       string
	Name     string
	Price    float64
	Image    string
	Category string
}

func (p Product) lineItem(qty int) LineItem {
	return LineItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		Category: p.Category,
		Quantity: qty,
	}
}

// Total is Price times Quantity.
func (i LineItem) Total() float64 {
	return i.Price * float64(i.Quantity)
}

func (i LineItem) valid() bool {
	return i.ID != "" && i.Quantity > 0 && i.Price >= 0
}
