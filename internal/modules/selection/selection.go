// Package selection is the order form's quantity model: per-product counters
// clamped to stock, the totals derived from them, and the optional family-pack
// exclusivity rule. Everything here is pure; callers persist Quantities.
package selection

import (
	"math"

	"github.com/georgemunganga/footcare-storefront/internal/modules/catalog"
)

// FamilyPackKey is the selection key of the bundle line.
const FamilyPackKey = "family_pack"

// Item is one selectable line on the order form.
type Item struct {
	Key           string  `json:"key"`
	ProductID     string  `json:"productId"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Image         string  `json:"image,omitempty"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice"`
	StockQuantity int     `json:"stockQuantity"`
	FamilyPack    bool    `json:"isFamilyPack,omitempty"`
}

func FromProduct(p catalog.Product) Item {
	p.Normalize()
	return Item{
		Key:           p.Key(),
		ProductID:     p.ID.Hex(),
		Name:          p.Title,
		Description:   p.SubTitle,
		Image:         p.Image,
		Price:         p.FinalPrice,
		OriginalPrice: p.MainPrice,
		StockQuantity: p.StockQuantity,
	}
}

// Quantities maps selection key to the selected count.
type Quantities map[string]int

func (q Quantities) clone() Quantities {
	out := make(Quantities, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}

// Rule adjusts quantities after the line at key changed.
type Rule func(items []Item, q Quantities, changed string) Quantities

// Independent leaves other lines untouched.
func Independent(_ []Item, q Quantities, _ string) Quantities { return q }

// ApplyExclusivity keeps the family pack and individual products mutually
// exclusive: selecting the pack clears every individual line and selecting an
// individual line clears the pack.
func ApplyExclusivity(items []Item, q Quantities, changed string) Quantities {
	if q[changed] <= 0 {
		return q
	}
	out := q.clone()
	if changed == FamilyPackKey {
		for _, it := range items {
			if it.Key != FamilyPackKey {
				out[it.Key] = 0
			}
		}
		return out
	}
	if _, ok := out[FamilyPackKey]; ok {
		out[FamilyPackKey] = 0
	}
	return out
}

// Model binds the offered items to a rule.
type Model struct {
	items []Item
	index map[string]Item
	rule  Rule
}

func NewModel(items []Item, rule Rule) *Model {
	if rule == nil {
		rule = Independent
	}
	index := make(map[string]Item, len(items))
	for _, it := range items {
		index[it.Key] = it
	}
	return &Model{items: items, index: index, rule: rule}
}

func (m *Model) Items() []Item { return m.items }

func (m *Model) Item(key string) (Item, bool) {
	it, ok := m.index[key]
	return it, ok
}

// Empty returns a zero counter for every item.
func (m *Model) Empty() Quantities {
	q := make(Quantities, len(m.items))
	for _, it := range m.items {
		q[it.Key] = 0
	}
	return q
}

// UpdateQuantity adds delta to the line at key, clamped to [0, stock], then
// applies the rule. Unknown keys leave q unchanged. q itself is never mutated.
func (m *Model) UpdateQuantity(q Quantities, key string, delta int) Quantities {
	it, ok := m.index[key]
	if !ok {
		return m.Normalize(q)
	}
	out := m.Normalize(q)
	out[key] = step(out[key], delta, it.StockQuantity)
	return m.rule(m.items, out, key)
}

// step moves cur by delta within [0, stock] without computing cur+delta, so
// deltas near the int limits saturate instead of wrapping.
func step(cur, delta, stock int) int {
	if stock < 0 {
		stock = 0
	}
	cur = clamp(cur, stock)
	switch {
	case delta > stock-cur:
		return stock
	case delta < -cur:
		return 0
	default:
		return cur + delta
	}
}

// Normalize drops keys for items no longer offered and clamps the rest to
// current stock.
func (m *Model) Normalize(q Quantities) Quantities {
	out := m.Empty()
	for k, v := range q {
		if it, ok := m.index[k]; ok {
			out[k] = clamp(v, it.StockQuantity)
		}
	}
	return out
}

func clamp(v, stock int) int {
	if stock < 0 {
		stock = 0
	}
	if v < 0 {
		return 0
	}
	if v > stock {
		return stock
	}
	return v
}

// Totals are the values derived from a selection.
type Totals struct {
	Subtotal     float64 `json:"subtotal"`
	TotalSavings float64 `json:"totalSavings"`
	TotalItems   int     `json:"totalItems"`
}

// Line is an item with a positive selected quantity.
type Line struct {
	Item
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"lineTotal"`
}

// Lines returns the selected lines in item order.
func (m *Model) Lines(q Quantities) []Line {
	var lines []Line
	for _, it := range m.items {
		n := clamp(q[it.Key], it.StockQuantity)
		if n <= 0 {
			continue
		}
		lines = append(lines, Line{Item: it, Quantity: n, LineTotal: round2(it.Price * float64(n))})
	}
	return lines
}

func (m *Model) Totals(q Quantities) Totals {
	var t Totals
	for _, l := range m.Lines(q) {
		t.Subtotal += l.Price * float64(l.Quantity)
		t.TotalSavings += (l.OriginalPrice - l.Price) * float64(l.Quantity)
		t.TotalItems += l.Quantity
	}
	t.Subtotal = round2(t.Subtotal)
	t.TotalSavings = round2(t.TotalSavings)
	return t
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
