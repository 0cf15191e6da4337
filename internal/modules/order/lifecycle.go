package order

import (
	"context"

	"github.com/georgemunganga/footcare-storefront/internal/querycache"
)

// View names one of the server-partitioned order lists.
type View string

const (
	ViewPending   View = "pending"
	ViewAccepted  View = "accepted"
	ViewCancelled View = "cancelled"
	ViewAll       View = "all"
)

func ParseView(s string) (View, error) {
	v := View(s)
	if _, ok := viewEndpoints[v]; !ok {
		return "", ErrUnknownView
	}
	return v, nil
}

// Stats are computed over one fetched view only.
type Stats struct {
	OrderCount        int      `json:"orderCount"`
	TotalValue        float64  `json:"totalValue"`
	TotalItems        int      `json:"totalItems"`
	DhakaOrders       *int     `json:"dhakaOrders,omitempty"`
	LatestOrderID     string   `json:"latestOrderId,omitempty"`
	AverageOrderValue *float64 `json:"averageOrderValue,omitempty"`
}

type Link struct {
	Label string `json:"label"`
	View  View   `json:"view"`
	Path  string `json:"path"`
}

type EmptyState struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Links   []Link `json:"links,omitempty"`
}

// StatusView is one admin order list. Every matching order is returned; there
// is no pagination.
type StatusView struct {
	View   View        `json:"view"`
	Orders []Order     `json:"orders"`
	Stats  Stats       `json:"stats"`
	Empty  *EmptyState `json:"empty,omitempty"`
}

func viewLink(label string, v View) Link {
	return Link{Label: label, View: v, Path: "/api/admin/orders/" + string(v)}
}

var emptyStates = map[View]EmptyState{
	ViewPending: {
		Title:   "No pending orders",
		Message: "All orders have been processed or there are no new orders",
		Links:   []Link{viewLink("View Accepted Orders", ViewAccepted)},
	},
	ViewAccepted: {
		Title:   "No accepted orders",
		Message: "All accepted orders will appear here. Check back later or review pending orders.",
		Links:   []Link{viewLink("View Pending Orders", ViewPending)},
	},
	ViewCancelled: {
		Title:   "No cancelled orders",
		Message: "There are no cancelled orders at the moment.",
		Links:   []Link{viewLink("View Pending Orders", ViewPending), viewLink("View Accepted Orders", ViewAccepted)},
	},
	ViewAll: {
		Title:   "No orders yet",
		Message: "Orders placed on the storefront will appear here.",
		Links:   []Link{viewLink("View Pending Orders", ViewPending)},
	},
}

// ComputeStats aggregates a fetched list. The list is assumed newest first,
// as the REST API returns it.
func ComputeStats(view View, orders []Order) Stats {
	st := Stats{OrderCount: len(orders)}
	dhaka := 0
	for _, o := range orders {
		st.TotalValue += o.TotalAmount
		st.TotalItems += o.ItemCount()
		if o.Area == "Dhaka" {
			dhaka++
		}
	}
	st.TotalValue = round2(st.TotalValue)

	latest := ""
	if len(orders) > 0 {
		latest = orders[0].OrderID
	}

	switch view {
	case ViewPending:
		st.DhakaOrders = &dhaka
		st.LatestOrderID = latest
	case ViewAccepted:
		avg := 0.0
		if len(orders) > 0 {
			avg = round2(st.TotalValue / float64(len(orders)))
		}
		st.AverageOrderValue = &avg
	case ViewCancelled:
		st.LatestOrderID = latest
	}
	return st
}

// fetchView shares one upstream fetch between concurrent callers. The shared
// call is detached from any single request, so a caller that goes away only
// abandons its own wait.
func (s *service) fetchView(ctx context.Context, view View) ([]Order, error) {
	key := cachePrefix + "list:" + string(view)
	return querycache.Fetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]Order, error) {
		ch := s.lists.DoChan(key, func() (interface{}, error) {
			shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
			defer cancel()
			return s.repo.List(shared, view)
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			return res.Val.([]Order), nil
		}
	})
}

func (s *service) ListView(ctx context.Context, view View) (*StatusView, error) {
	if _, ok := viewEndpoints[view]; !ok {
		return nil, ErrUnknownView
	}
	orders, err := s.fetchView(ctx, view)
	if err != nil {
		return nil, err
	}
	sv := &StatusView{View: view, Orders: orders, Stats: ComputeStats(view, orders)}
	if len(orders) == 0 {
		empty := emptyStates[view]
		sv.Empty = &empty
	}
	return sv, nil
}

func (s *service) ListAll(ctx context.Context) ([]Order, error) {
	return s.fetchView(ctx, ViewAll)
}
