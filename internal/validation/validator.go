package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ambefarm/beantracker/pkg/models"
)

// Input is a raw order submission as it arrives from the entry form, before
// any checking. String fields carry whatever the operator typed or selected.
type Input struct {
	CustomerName  string
	CustomerPhone string
	Product       string
	Area          string
	Weight        string
	Date          string // ISO 8601 date; defaults to today when blank
	Quantity      int
	PricePerUnit  float64
	PaymentStatus string // defaults to Paid when blank
	Notes         string
}

// BuildOrder validates the submission and, on success, constructs the order
// that will be persisted: fresh id, createdAt stamped now, totalPrice
// computed as quantity times price per unit. Checks run in a fixed sequence
// and the first failing rule is returned alone; errors are never aggregated.
//
// BuildOrder has no side effects. Persisting the result is the sync
// gateway's job.
func BuildOrder(in Input) (*models.SaleOrder, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, errors.New("customer name is required")
	}
	product := models.Product(in.Product)
	if !product.Valid() {
		if in.Product == "" {
			return nil, errors.New("please select a product")
		}
		return nil, fmt.Errorf("unknown product %q", in.Product)
	}
	area := models.Area(in.Area)
	if !area.Valid() {
		if in.Area == "" {
			return nil, errors.New("please select an area")
		}
		return nil, fmt.Errorf("unknown area %q", in.Area)
	}
	weight := models.Weight(in.Weight)
	if !weight.Valid() {
		if in.Weight == "" {
			return nil, errors.New("please select a weight variant")
		}
		return nil, fmt.Errorf("unknown weight variant %q", in.Weight)
	}
	if in.PricePerUnit <= 0 {
		return nil, errors.New("price per unit must be greater than zero")
	}
	if in.Quantity <= 0 {
		return nil, errors.New("quantity must be greater than zero")
	}

	status := models.PaymentStatus(in.PaymentStatus)
	if in.PaymentStatus == "" {
		status = models.PaymentPaid
	} else if !status.Valid() {
		return nil, fmt.Errorf("unknown payment status %q", in.PaymentStatus)
	}

	date := in.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid sale date %q, expected YYYY-MM-DD", date)
	}

	return &models.SaleOrder{
		ID:            uuid.New().String(),
		Product:       product,
		Date:          date,
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
		Area:          area,
		Weight:        weight,
		Quantity:      in.Quantity,
		TotalPackages: in.Quantity,
		TotalPrice:    float64(in.Quantity) * in.PricePerUnit,
		PaymentStatus: status,
		Notes:         in.Notes,
		CreatedAt:     time.Now().UnixMilli(),
	}, nil
}
