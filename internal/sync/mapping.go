package sync

import (
	"strconv"
	"time"

	"github.com/ambefarm/beantracker/pkg/models"
)

// fieldAliases maps each canonical order field to the wire names accepted
// for it, canonical name first. Remote records arrive in the store's column
// casing (Id, SaleDate, ...) while cache entries and POST bodies use the
// canonical camelCase names; both must be readable. The table is the single
// place where that tolerance lives.
var fieldAliases = map[string][]string{
	"id":            {"id", "Id"},
	"product":       {"product", "Product"},
	"date":          {"date", "SaleDate"},
	"customerName":  {"customerName", "CustomerName"},
	"customerPhone": {"customerPhone", "CustomerPhone"},
	"area":          {"area", "Area"},
	"weight":        {"weight", "Weight"},
	"quantity":      {"quantity", "Quantity"},
	"totalPackages": {"totalPackages", "TotalPackages"},
	"totalPrice":    {"totalPrice", "TotalPrice"},
	"paymentStatus": {"paymentStatus", "PaymentStatus"},
	"notes":         {"notes", "Notes"},
	"createdAt":     {"createdAt", "CreatedAt"},
}

// orderFromRecord maps one decoded remote record onto the canonical order
// shape, coercing numerics that arrive as text, trimming date-times down to
// ISO dates and converting creation timestamps to epoch milliseconds.
func orderFromRecord(rec map[string]any) models.SaleOrder {
	order := models.SaleOrder{
		ID:            asString(pick(rec, "id")),
		Product:       models.Product(asString(pick(rec, "product"))),
		Date:          asDate(pick(rec, "date")),
		CustomerName:  asString(pick(rec, "customerName")),
		CustomerPhone: asString(pick(rec, "customerPhone")),
		Area:          models.Area(asString(pick(rec, "area"))),
		Weight:        models.Weight(asString(pick(rec, "weight"))),
		Quantity:      asInt(pick(rec, "quantity")),
		TotalPackages: asInt(pick(rec, "totalPackages")),
		TotalPrice:    asFloat(pick(rec, "totalPrice")),
		PaymentStatus: models.PaymentStatus(asString(pick(rec, "paymentStatus"))),
		Notes:         asString(pick(rec, "notes")),
		CreatedAt:     asEpochMillis(pick(rec, "createdAt")),
	}
	if order.CustomerName == "" {
		order.CustomerName = "Customer"
	}
	if !order.PaymentStatus.Valid() {
		order.PaymentStatus = models.PaymentPaid
	}
	return order
}

func pick(rec map[string]any, field string) any {
	for _, name := range fieldAliases[field] {
		if v, ok := rec[name]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}

func asInt(v any) int {
	return int(asFloat(v))
}

// asDate reduces a date-time string to its date component. The remote store
// answers with full timestamps for date columns.
func asDate(v any) string {
	s := asString(v)
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// asEpochMillis accepts either epoch milliseconds (cache entries) or an
// RFC 3339 timestamp (remote records).
func asEpochMillis(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts.UnixMilli()
		}
	}
	return 0
}
