// Package report derives filtered views and aggregate figures from an
// already-loaded order list. Everything here is pure computation over the
// slice passed in: no I/O, no ambient state.
package report

import (
	"sort"
	"strings"

	"github.com/ambefarm/beantracker/pkg/models"
)

// Query holds the report filter predicates. Zero-valued fields match every
// order; supplied predicates are combined with AND.
type Query struct {
	Date          string // exact match on sale date
	Area          models.Area
	Product       models.Product
	PaymentStatus models.PaymentStatus
	Search        string // case-insensitive substring of customer name or notes
}

// Filter returns the orders satisfying every predicate in q, preserving
// input order.
func Filter(orders []models.SaleOrder, q Query) []models.SaleOrder {
	search := strings.ToLower(q.Search)
	var out []models.SaleOrder
	for _, o := range orders {
		if q.Date != "" && o.Date != q.Date {
			continue
		}
		if q.Area != "" && o.Area != q.Area {
			continue
		}
		if q.Product != "" && o.Product != q.Product {
			continue
		}
		if q.PaymentStatus != "" && o.PaymentStatus != q.PaymentStatus {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(o.CustomerName), search) &&
			!strings.Contains(strings.ToLower(o.Notes), search) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Totals sums package count and revenue over the given orders, typically a
// filtered subset.
func Totals(orders []models.SaleOrder) (quantity int, revenue float64) {
	for _, o := range orders {
		quantity += o.Quantity
		revenue += o.TotalPrice
	}
	return quantity, revenue
}

// Metrics are the dashboard headline figures.
type Metrics struct {
	TotalSales      float64
	PaidAmount      float64
	PendingAmount   float64
	TotalPackages   int
	UniqueCustomers int
}

func Summarize(orders []models.SaleOrder) Metrics {
	var m Metrics
	customers := make(map[string]struct{})
	for _, o := range orders {
		m.TotalSales += o.TotalPrice
		m.TotalPackages += o.Quantity
		switch o.PaymentStatus {
		case models.PaymentPaid:
			m.PaidAmount += o.TotalPrice
		case models.PaymentPending:
			m.PendingAmount += o.TotalPrice
		}
		customers[o.CustomerName] = struct{}{}
	}
	m.UniqueCustomers = len(customers)
	return m
}

// TrendPoint is one day's revenue.
type TrendPoint struct {
	Date    string
	Revenue float64
}

// RevenueTrend groups revenue by sale date, ascending, keeping only the
// last lastN dates that saw sales. lastN <= 0 keeps everything.
func RevenueTrend(orders []models.SaleOrder, lastN int) []TrendPoint {
	byDate := make(map[string]float64)
	for _, o := range orders {
		byDate[o.Date] += o.TotalPrice
	}
	points := make([]TrendPoint, 0, len(byDate))
	for date, revenue := range byDate {
		points = append(points, TrendPoint{Date: date, Revenue: revenue})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	if lastN > 0 && len(points) > lastN {
		points = points[len(points)-lastN:]
	}
	return points
}

// ProductRevenue is one crop's contribution to revenue.
type ProductRevenue struct {
	Product models.Product
	Revenue float64
}

// RevenueByProduct totals revenue per crop, in menu order, skipping crops
// with no sales.
func RevenueByProduct(orders []models.SaleOrder) []ProductRevenue {
	byProduct := make(map[models.Product]float64)
	for _, o := range orders {
		byProduct[o.Product] += o.TotalPrice
	}
	var out []ProductRevenue
	for _, p := range models.Products() {
		if revenue, ok := byProduct[p]; ok {
			out = append(out, ProductRevenue{Product: p, Revenue: revenue})
		}
	}
	return out
}
