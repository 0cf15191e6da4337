package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// KeyPrefix namespaces product ids when they are used as selection keys.
	KeyPrefix = "product_"

	popularDiscountPercent = 40
	lowStockThreshold      = 5
)

// Product is the upstream product document. The storefront only reads it;
// admins change it through the REST API.
type Product struct {
	ID             primitive.ObjectID `json:"_id"`
	ProductID      string             `json:"productId,omitempty"`
	Title          string             `json:"title"`
	SubTitle       string             `json:"subTitle"`
	Image          string             `json:"image,omitempty"`
	MainPrice      float64            `json:"mainPrice"`
	DiscountAmount float64            `json:"discountAmount"`
	FinalPrice     float64            `json:"finalPrice"`
	StockQuantity  int                `json:"stockQuantity"`
	CreatedAt      *time.Time         `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time         `json:"updatedAt,omitempty"`
}

// Normalize recomputes FinalPrice so that 0 <= FinalPrice <= MainPrice.
func (p *Product) Normalize() {
	p.FinalPrice = FinalPrice(p.MainPrice, p.DiscountAmount)
	if p.StockQuantity < 0 {
		p.StockQuantity = 0
	}
}

func FinalPrice(mainPrice, discount float64) float64 {
	final := mainPrice - discount
	if final > mainPrice {
		final = mainPrice
	}
	if final < 0 {
		final = 0
	}
	return round2(final)
}

// Key is the selection key used by the order form.
func (p Product) Key() string { return KeyPrefix + p.ID.Hex() }

func (p Product) DiscountPercentage() int {
	if p.MainPrice <= 0 {
		return 0
	}
	return int(math.Round(p.DiscountAmount / p.MainPrice * 100))
}

func (p Product) IsPopular() bool { return p.DiscountPercentage() > popularDiscountPercent }

func (p Product) StockLabel() string {
	switch {
	case p.StockQuantity <= 0:
		return "Out of stock"
	case p.StockQuantity <= lowStockThreshold:
		return fmt.Sprintf("Only %d left", p.StockQuantity)
	default:
		return fmt.Sprintf("%d in stock", p.StockQuantity)
	}
}

// ProductView is a Product plus the values the storefront renders next to it.
type ProductView struct {
	Product
	Key                string `json:"key"`
	DiscountPercentage int    `json:"discountPercentage"`
	IsPopular          bool   `json:"isPopular"`
	InStock            bool   `json:"inStock"`
	StockLabel         string `json:"stockLabel"`
}

func NewView(p Product) ProductView {
	p.Normalize()
	return ProductView{
		Product:            p,
		Key:                p.Key(),
		DiscountPercentage: p.DiscountPercentage(),
		IsPopular:          p.IsPopular(),
		InStock:            p.StockQuantity > 0,
		StockLabel:         p.StockLabel(),
	}
}

// Page is one page of a product listing or search.
type Page struct {
	Products    []Product `json:"products"`
	TotalCount  int       `json:"totalCount"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
}

// UnmarshalJSON also accepts a bare array, which some listing endpoints return.
func (pg *Page) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '[' {
		var products []Product
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return err
		}
		*pg = Page{Products: products, TotalCount: len(products), TotalPages: 1, CurrentPage: 1}
		return nil
	}
	type plain Page
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*pg = Page(p)
	return nil
}

type PageView struct {
	Products    []ProductView `json:"products"`
	TotalCount  int           `json:"totalCount"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
}

func NewPageView(pg *Page) PageView {
	views := make([]ProductView, 0, len(pg.Products))
	for _, p := range pg.Products {
		views = append(views, NewView(p))
	}
	total := pg.TotalPages
	if total < 1 {
		total = 1
	}
	return PageView{Products: views, TotalCount: pg.TotalCount, TotalPages: total, CurrentPage: pg.CurrentPage}
}

// ListQuery selects a page of products. Query is only used by search.
type ListQuery struct {
	Query  string
	Page   int
	Limit  int
	SortBy string
}

// ProductInput is the admin payload for creating or updating a product.
// FinalPrice is always derived from MainPrice and DiscountAmount.
type ProductInput struct {
	Title          string  `json:"title" validate:"required"`
	SubTitle       string  `json:"subTitle"`
	Image          string  `json:"image,omitempty" validate:"omitempty,url"`
	StockQuantity  int     `json:"stockQuantity" validate:"gte=0"`
	MainPrice      float64 `json:"mainPrice" validate:"gt=0"`
	DiscountAmount float64 `json:"discountAmount" validate:"gte=0,ltefield=MainPrice"`
	FinalPrice     float64 `json:"finalPrice"`
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
