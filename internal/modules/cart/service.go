// Package cart keeps the per-session cart, wishlist and catalog page.
package cart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/georgemunganga/footcare-storefront/internal/modules/catalog"
	"github.com/georgemunganga/footcare-storefront/internal/notify"
	"github.com/georgemunganga/footcare-storefront/internal/store"
)

var (
	ErrNoSession   = errors.New("no session")
	ErrOutOfStock  = errors.New("product is out of stock")
	ErrNotInCart   = errors.New("product is not in the cart")
	ErrInvalidPage = errors.New("page must be at least 1")
)

// ProductLookup resolves a product before it is added.
type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (*catalog.ProductView, error)
}

type Service interface {
	Cart(ctx context.Context, session string) (*View, error)
	Add(ctx context.Context, session, productID string, quantity int) (*View, error)
	Remove(ctx context.Context, session, productID string) (*View, error)
	SetQuantity(ctx context.Context, session, productID string, quantity int) (*View, error)
	Toggle(ctx context.Context, session string) (*View, error)

	Wishlist(ctx context.Context, session string) (*Wishlist, error)
	AddToWishlist(ctx context.Context, session, productID string) (*Wishlist, error)
	RemoveFromWishlist(ctx context.Context, session, productID string) (*Wishlist, error)

	Page(ctx context.Context, session string) (*Page, error)
	SetPage(ctx context.Context, session string, page int) (*Page, error)
	ResetPage(ctx context.Context, session string) (*Page, error)
}

type service struct {
	products  ProductLookup
	carts     *store.Typed[Cart]
	wishlists *store.Typed[Wishlist]
	pages     *store.Typed[Page]
	notifier  notify.Notifier
	logger    *zap.Logger
}

func NewService(products ProductLookup, st store.Store, notifier notify.Notifier, logger *zap.Logger) Service {
	return &service{
		products:  products,
		carts:     store.NewTyped[Cart](st, "cart", 2, map[int]store.Migration{1: migrateCartV1}),
		wishlists: store.NewTyped[Wishlist](st, "wishlist", 1, nil),
		pages:     store.NewTyped[Page](st, "page", 1, nil),
		notifier:  notifier,
		logger:    logger,
	}
}

func checkSession(session string) error {
	if session == "" {
		return ErrNoSession
	}
	return nil
}

func (s *service) Cart(ctx context.Context, session string) (*View, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	c, err := s.carts.Get(ctx, session, newCart)
	if err != nil {
		return nil, err
	}
	v := NewView(c)
	return &v, nil
}

func (s *service) updateCart(ctx context.Context, session string, fn func(*Cart) error) (*View, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	c, err := s.carts.Update(ctx, session, newCart, fn)
	if err != nil {
		return nil, err
	}
	v := NewView(c)
	return &v, nil
}

func (s *service) Add(ctx context.Context, session, productID string, quantity int) (*View, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.InStock {
		s.notifier.Notify(ctx, notify.Error("Error", fmt.Sprintf("%s is out of stock", p.Title)))
		return nil, ErrOutOfStock
	}
	v, err := s.updateCart(ctx, session, func(c *Cart) error {
		c.add(Line{ID: p.ID.Hex(), Title: p.Title, Image: p.Image, Price: p.FinalPrice, Quantity: quantity})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, notify.Success("Added to cart", p.Title))
	return v, nil
}

func (s *service) Remove(ctx context.Context, session, productID string) (*View, error) {
	return s.updateCart(ctx, session, func(c *Cart) error {
		c.remove(productID)
		return nil
	})
}

func (s *service) SetQuantity(ctx context.Context, session, productID string, quantity int) (*View, error) {
	return s.updateCart(ctx, session, func(c *Cart) error {
		if !c.setQuantity(productID, quantity) {
			return ErrNotInCart
		}
		return nil
	})
}

func (s *service) Toggle(ctx context.Context, session string) (*View, error) {
	return s.updateCart(ctx, session, func(c *Cart) error {
		c.IsOpen = !c.IsOpen
		return nil
	})
}

func (s *service) Wishlist(ctx context.Context, session string) (*Wishlist, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	w, err := s.wishlists.Get(ctx, session, newWishlist)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// AddToWishlist ignores products already on the list.
func (s *service) AddToWishlist(ctx context.Context, session, productID string) (*Wishlist, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	w, err := s.wishlists.Update(ctx, session, newWishlist, func(w *Wishlist) error {
		for _, it := range w.Items {
			if it.ID == p.ID.Hex() {
				return nil
			}
		}
		w.Items = append(w.Items, WishItem{ID: p.ID.Hex(), Title: p.Title, Image: p.Image, Price: p.FinalPrice})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *service) RemoveFromWishlist(ctx context.Context, session, productID string) (*Wishlist, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	w, err := s.wishlists.Update(ctx, session, newWishlist, func(w *Wishlist) error {
		out := w.Items[:0]
		for _, it := range w.Items {
			if it.ID != productID {
				out = append(out, it)
			}
		}
		w.Items = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *service) Page(ctx context.Context, session string) (*Page, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	p, err := s.pages.Get(ctx, session, newPage)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *service) SetPage(ctx context.Context, session string, page int) (*Page, error) {
	if err := checkSession(session); err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, ErrInvalidPage
	}
	p := Page{CurrentPage: page}
	if err := s.pages.Put(ctx, session, p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *service) ResetPage(ctx context.Context, session string) (*Page, error) {
	return s.SetPage(ctx, session, 1)
}
