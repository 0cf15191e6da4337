package analytics

import (
	"math"
	"sort"

	"github.com/georgemunganga/footcare-storefront/internal/modules/order"
)

const topN = 5

type DayBucket struct {
	Date   string  `json:"date"`
	Sales  float64 `json:"sales"`
	Orders int     `json:"orders"`
	Items  int     `json:"items"`
}

type ProductSales struct {
	Name     string  `json:"name"`
	Sales    float64 `json:"sales"`
	Quantity int     `json:"quantity"`
	Orders   int     `json:"orders"`
}

type CustomerSpend struct {
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Orders     int     `json:"orders"`
	TotalSpent float64 `json:"totalSpent"`
}

// Report is the sales summary for one date range.
type Report struct {
	Range Range `json:"range"`

	TotalOrders int     `json:"totalOrders"`
	TotalSales  float64 `json:"totalSales"`
	TotalItems  int     `json:"totalItems"`

	PendingOrders   int `json:"pendingOrders"`
	AcceptedOrders  int `json:"acceptedOrders"`
	DeliveredOrders int `json:"deliveredOrders"`
	CancelledOrders int `json:"cancelledOrders"`

	CancelledSales float64 `json:"cancelledSales"`
	CancelledItems int     `json:"cancelledItems"`

	AverageOrderValue float64 `json:"averageOrderValue"`
	SalesGrowth       float64 `json:"salesGrowth"`
	ConversionRate    float64 `json:"conversionRate"`
	UniqueCustomers   int     `json:"uniqueCustomers"`

	Timeline     []DayBucket     `json:"timeline"`
	TopProducts  []ProductSales  `json:"topProducts"`
	TopCustomers []CustomerSpend `json:"topCustomers"`
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func customerKey(o order.Order) string {
	switch {
	case o.CustomerPhone != "":
		return o.CustomerPhone
	case o.CustomerName != "":
		return o.CustomerName
	default:
		return "Unknown"
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Compute builds the report for r from every known order. Orders outside r only
// feed the growth comparison.
func Compute(orders []order.Order, r Range) Report {
	rep := Report{Range: r}
	var prevSales float64
	prev := r.Previous()

	days := map[string]*DayBucket{}
	products := map[string]*ProductSales{}
	customers := map[string]*CustomerSpend{}

	for _, o := range orders {
		if prev.Contains(o.CreatedAt) {
			prevSales += o.TotalAmount
		}
		if !r.Contains(o.CreatedAt) {
			continue
		}
		items := o.ItemCount()
		rep.TotalOrders++
		rep.TotalSales += o.TotalAmount
		rep.TotalItems += items

		switch o.OrderStatus {
		case order.StatusPending:
			rep.PendingOrders++
		case order.StatusAccepted, order.StatusConfirmed:
			rep.AcceptedOrders++
		case order.StatusDelivered:
			rep.DeliveredOrders++
		case order.StatusCancelled:
			rep.CancelledOrders++
			rep.CancelledSales += o.TotalAmount
			rep.CancelledItems += items
		}

		day := o.CreatedAt.In(r.From.Location()).Format(dateLayout)
		b, ok := days[day]
		if !ok {
			b = &DayBucket{Date: day}
			days[day] = b
		}
		b.Sales += o.TotalAmount
		b.Orders++
		b.Items += items

		for _, p := range o.Products {
			name := orDefault(p.ProductName, "Product "+p.ProductID)
			ps, ok := products[name]
			if !ok {
				ps = &ProductSales{Name: name}
				products[name] = ps
			}
			ps.Sales += p.ProductPrice * float64(p.ProductQuantity)
			ps.Quantity += p.ProductQuantity
			ps.Orders++
		}

		key := customerKey(o)
		c, ok := customers[key]
		if !ok {
			c = &CustomerSpend{Name: orDefault(o.CustomerName, "Unknown"), Phone: orDefault(o.CustomerPhone, "N/A")}
			customers[key] = c
		}
		c.Orders++
		c.TotalSpent += o.TotalAmount
	}

	if rep.TotalOrders > 0 {
		rep.AverageOrderValue = round2(rep.TotalSales / float64(rep.TotalOrders))
		rep.ConversionRate = round2(float64(rep.AcceptedOrders+rep.DeliveredOrders) / float64(rep.TotalOrders) * 100)
	}
	switch {
	case prevSales > 0:
		rep.SalesGrowth = round2((rep.TotalSales - prevSales) / prevSales * 100)
	case rep.TotalSales > 0:
		rep.SalesGrowth = 100
	}
	rep.TotalSales = round2(rep.TotalSales)
	rep.CancelledSales = round2(rep.CancelledSales)
	rep.UniqueCustomers = len(customers)

	rep.Timeline = make([]DayBucket, 0, len(days))
	for _, b := range days {
		b.Sales = round2(b.Sales)
		rep.Timeline = append(rep.Timeline, *b)
	}
	sort.Slice(rep.Timeline, func(i, j int) bool { return rep.Timeline[i].Date < rep.Timeline[j].Date })

	rep.TopProducts = make([]ProductSales, 0, len(products))
	for _, p := range products {
		p.Sales = round2(p.Sales)
		rep.TopProducts = append(rep.TopProducts, *p)
	}
	sort.Slice(rep.TopProducts, func(i, j int) bool {
		a, b := rep.TopProducts[i], rep.TopProducts[j]
		if a.Sales != b.Sales {
			return a.Sales > b.Sales
		}
		return a.Name < b.Name
	})
	if len(rep.TopProducts) > topN {
		rep.TopProducts = rep.TopProducts[:topN]
	}

	rep.TopCustomers = make([]CustomerSpend, 0, len(customers))
	for _, c := range customers {
		c.TotalSpent = round2(c.TotalSpent)
		rep.TopCustomers = append(rep.TopCustomers, *c)
	}
	sort.Slice(rep.TopCustomers, func(i, j int) bool {
		a, b := rep.TopCustomers[i], rep.TopCustomers[j]
		if a.TotalSpent != b.TotalSpent {
			return a.TotalSpent > b.TotalSpent
		}
		return a.Phone < b.Phone
	})
	if len(rep.TopCustomers) > topN {
		rep.TopCustomers = rep.TopCustomers[:topN]
	}
	return rep
}
