package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/georgemunganga/footcare-storefront/internal/backend"
	"github.com/georgemunganga/footcare-storefront/internal/notify"
	"github.com/georgemunganga/footcare-storefront/internal/querycache"
)

var (
	ErrInvalidID    = errors.New("invalid product id")
	ErrInvalidInput = errors.New("invalid product")
)

const (
	cachePrefix = "products:"

	defaultListLimit   = 12
	defaultSearchLimit = 10
	maxLimit           = 100
	orderFormLimit     = 100
)

// Service defines catalog reads for the storefront and product CRUD for admins.
type Service interface {
	ListProducts(ctx context.Context, q ListQuery) (*PageView, error)
	SearchProducts(ctx context.Context, q ListQuery) (*PageView, error)
	GetProduct(ctx context.Context, id string) (*ProductView, error)
	GetProductByProductID(ctx context.Context, productID string) (*ProductView, error)

	// OrderFormProducts returns the products offered on the order form, in catalog order.
	OrderFormProducts(ctx context.Context) ([]Product, error)

	CreateProduct(ctx context.Context, in ProductInput) (*ProductView, error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) (*ProductView, error)
	DeleteProduct(ctx context.Context, id string) error
}

type service struct {
	repo     Repository
	cache    querycache.Cache
	ttl      time.Duration
	notifier notify.Notifier
	validate *validator.Validate
	logger   *zap.Logger
}

func NewService(repo Repository, cache querycache.Cache, ttl time.Duration, notifier notify.Notifier, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		cache:    cache,
		ttl:      ttl,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger,
	}
}

func normalizeQuery(q ListQuery, defaultLimit int, defaultSort string) ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.SortBy == "" {
		q.SortBy = defaultSort
	}
	q.Query = strings.TrimSpace(q.Query)
	return q
}

func (s *service) ListProducts(ctx context.Context, q ListQuery) (*PageView, error) {
	q = normalizeQuery(q, defaultListLimit, "featured")
	key := fmt.Sprintf("%slist:%d:%d:%s", cachePrefix, q.Page, q.Limit, q.SortBy)
	pg, err := querycache.Fetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*Page, error) {
		return s.repo.List(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	v := NewPageView(pg)
	if v.CurrentPage == 0 {
		v.CurrentPage = q.Page
	}
	return &v, nil
}

func (s *service) SearchProducts(ctx context.Context, q ListQuery) (*PageView, error) {
	q = normalizeQuery(q, defaultSearchLimit, "relevance")
	if q.Query == "" {
		return &PageView{Products: []ProductView{}, TotalPages: 1, CurrentPage: 1}, nil
	}
	key := fmt.Sprintf("%ssearch:%s:%d:%d:%s", cachePrefix, url.QueryEscape(q.Query), q.Page, q.Limit, q.SortBy)
	pg, err := querycache.Fetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*Page, error) {
		return s.repo.Search(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	v := NewPageView(pg)
	if v.CurrentPage == 0 {
		v.CurrentPage = q.Page
	}
	return &v, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*ProductView, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	p, err := querycache.Fetch(ctx, s.cache, cachePrefix+"item:"+id, s.ttl, func(ctx context.Context) (*Product, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	v := NewView(*p)
	return &v, nil
}

func (s *service) GetProductByProductID(ctx context.Context, productID string) (*ProductView, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, fmt.Errorf("%w: empty productId", ErrInvalidID)
	}
	p, err := querycache.Fetch(ctx, s.cache, cachePrefix+"pid:"+url.PathEscape(productID), s.ttl, func(ctx context.Context) (*Product, error) {
		return s.repo.GetByProductID(ctx, productID)
	})
	if err != nil {
		return nil, err
	}
	v := NewView(*p)
	return &v, nil
}

func (s *service) OrderFormProducts(ctx context.Context) ([]Product, error) {
	q := ListQuery{Page: 1, Limit: orderFormLimit, SortBy: "featured"}
	key := fmt.Sprintf("%slist:%d:%d:%s", cachePrefix, q.Page, q.Limit, q.SortBy)
	pg, err := querycache.Fetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*Page, error) {
		return s.repo.List(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(pg.Products))
	for _, p := range pg.Products {
		p.Normalize()
		products = append(products, p)
	}
	return products, nil
}

// ── Admin mutations ──────────────────────────────────────────────────────────

func (s *service) CreateProduct(ctx context.Context, in ProductInput) (*ProductView, error) {
	in, err := s.checkInput(in)
	if err == nil && in.StockQuantity <= 0 {
		err = fmt.Errorf("%w: Stock quantity must be greater than 0", ErrInvalidInput)
	}
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Error adding product", strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": ")))
		return nil, err
	}

	p, err := s.repo.Create(ctx, in)
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Error adding product", backend.UserMessage(err, "Error adding product")))
		return nil, err
	}
	s.invalidate(ctx)
	s.notifier.Notify(ctx, notify.Success("Product added", fmt.Sprintf("%s added successfully", in.Title)))
	v := NewView(*p)
	return &v, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*ProductView, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	in, err := s.checkInput(in)
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Error updating product", strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": ")))
		return nil, err
	}

	p, err := s.repo.Update(ctx, id, in)
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Error updating product", backend.UserMessage(err, "Error updating product")))
		return nil, err
	}
	s.invalidate(ctx)
	s.notifier.Notify(ctx, notify.Success("Product updated", fmt.Sprintf("%s updated successfully", in.Title)))
	v := NewView(*p)
	return &v, nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.notifier.Notify(ctx, notify.Error("Error deleting product", backend.UserMessage(err, "Error deleting product")))
		return err
	}
	s.invalidate(ctx)
	s.notifier.Notify(ctx, notify.Success("Product deleted", "Product deleted successfully"))
	return nil
}

// checkInput trims and validates an admin payload and derives FinalPrice.
func (s *service) checkInput(in ProductInput) (ProductInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.SubTitle = strings.TrimSpace(in.SubTitle)
	in.Image = strings.TrimSpace(in.Image)

	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return in, fmt.Errorf("%w: %s", ErrInvalidInput, inputMessage(verrs[0]))
		}
		return in, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	in.FinalPrice = FinalPrice(in.MainPrice, in.DiscountAmount)
	return in, nil
}

func inputMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Title":
		return "Title is required"
	case "StockQuantity":
		return "Stock quantity cannot be negative"
	case "MainPrice":
		return "Main price must be greater than 0"
	case "DiscountAmount":
		return "Discount must be between 0 and the main price"
	case "Image":
		return "Image must be a valid URL"
	default:
		return fe.Field() + " is invalid"
	}
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cachePrefix); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.Error(err))
	}
}
