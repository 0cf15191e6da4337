package catalog

import (
	"context"
	"net/url"
	"strconv"

	"github.com/georgemunganga/footcare-storefront/internal/backend"
)

// Repository defines access to the upstream product endpoints.
type Repository interface {
	List(ctx context.Context, q ListQuery) (*Page, error)
	Search(ctx context.Context, q ListQuery) (*Page, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByProductID(ctx context.Context, productID string) (*Product, error)
	Create(ctx context.Context, in ProductInput) (*Product, error)
	Update(ctx context.Context, id string, in ProductInput) (*Product, error)
	Delete(ctx context.Context, id string) error
}

type backendRepo struct{ client *backend.Client }

// NewBackendRepository reads and writes products through the REST API.
func NewBackendRepository(client *backend.Client) Repository { return &backendRepo{client: client} }

func listValues(q ListQuery) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	return v
}

func (r *backendRepo) List(ctx context.Context, q ListQuery) (*Page, error) {
	var pg Page
	if err := r.client.Get(ctx, "/product/get-all-products", listValues(q), &pg); err != nil {
		return nil, err
	}
	return &pg, nil
}

func (r *backendRepo) Search(ctx context.Context, q ListQuery) (*Page, error) {
	v := listValues(q)
	v.Set("q", q.Query)
	var pg Page
	if err := r.client.Get(ctx, "/product/search", v, &pg); err != nil {
		return nil, err
	}
	return &pg, nil
}

func (r *backendRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := r.client.Get(ctx, "/product/get-product/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *backendRepo) GetByProductID(ctx context.Context, productID string) (*Product, error) {
	var p Product
	if err := r.client.Get(ctx, "/product/get-product-by-productid/"+url.PathEscape(productID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *backendRepo) Create(ctx context.Context, in ProductInput) (*Product, error) {
	var p Product
	if err := r.client.Post(ctx, "/product/add-product", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *backendRepo) Update(ctx context.Context, id string, in ProductInput) (*Product, error) {
	var p Product
	if err := r.client.Put(ctx, "/product/update-product/"+url.PathEscape(id), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *backendRepo) Delete(ctx context.Context, id string) error {
	return r.client.Delete(ctx, "/product/delete-product/"+url.PathEscape(id), nil)
}
