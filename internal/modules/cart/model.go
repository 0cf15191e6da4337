package cart

import (
	"encoding/json"
	"math"
)

// Line is one product in the cart.
type Line struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Image    string  `json:"image,omitempty"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Cart struct {
	Items  []Line `json:"items"`
	IsOpen bool   `json:"isOpen"`
}

func newCart() Cart { return Cart{Items: []Line{}} }

func (c *Cart) index(id string) int {
	for i, l := range c.Items {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// add merges by product id; quantity defaults to one.
func (c *Cart) add(l Line) {
	if l.Quantity <= 0 {
		l.Quantity = 1
	}
	if i := c.index(l.ID); i >= 0 {
		c.Items[i].Quantity += l.Quantity
		return
	}
	c.Items = append(c.Items, l)
}

func (c *Cart) remove(id string) {
	out := c.Items[:0]
	for _, l := range c.Items {
		if l.ID != id {
			out = append(out, l)
		}
	}
	c.Items = out
}

// setQuantity drops the line when quantity is not positive.
func (c *Cart) setQuantity(id string, quantity int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.remove(id)
		return true
	}
	c.Items[i].Quantity = quantity
	return true
}

// View adds totals to the stored cart.
type View struct {
	Cart
	TotalItems int     `json:"totalItems"`
	Subtotal   float64 `json:"subtotal"`
}

func NewView(c Cart) View {
	v := View{Cart: c}
	for _, l := range c.Items {
		v.TotalItems += l.Quantity
		v.Subtotal += l.Price * float64(l.Quantity)
	}
	v.Subtotal = math.Round(v.Subtotal*100) / 100
	return v
}

type WishItem struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Image string  `json:"image,omitempty"`
	Price float64 `json:"price"`
}

type Wishlist struct {
	Items []WishItem `json:"items"`
}

func newWishlist() Wishlist { return Wishlist{Items: []WishItem{}} }

type Page struct {
	CurrentPage int `json:"currentPage"`
}

func newPage() Page { return Page{CurrentPage: 1} }

// migrateCartV1 upgrades the browser-era shape {cartItems: [{_id|id, ...}], isOpen}.
func migrateCartV1(raw json.RawMessage) (json.RawMessage, error) {
	var v1 struct {
		CartItems []struct {
			MongoID  string  `json:"_id"`
			ID       string  `json:"id"`
			Title    string  `json:"title"`
			Image    string  `json:"image"`
			Price    float64 `json:"finalPrice"`
			Quantity int     `json:"quantity"`
		} `json:"cartItems"`
		IsOpen bool `json:"isOpen"`
	}
	if err := json.Unmarshal(raw, &v1); err != nil {
		return nil, err
	}
	c := newCart()
	c.IsOpen = v1.IsOpen
	for _, it := range v1.CartItems {
		id := it.MongoID
		if id == "" {
			id = it.ID
		}
		c.add(Line{ID: id, Title: it.Title, Image: it.Image, Price: it.Price, Quantity: it.Quantity})
	}
	return json.Marshal(c)
}
