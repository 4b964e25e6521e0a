package models

// Product is one of the crop varieties the business trades.
type Product string

const (
	ProductPapadi Product = "Papadi"
	ProductTuver  Product = "Tuver"
	ProductVal    Product = "Val"
	ProductCholi  Product = "Choli"
)

// Products returns every tradable crop variety in menu order.
func Products() []Product {
	return []Product{ProductPapadi, ProductTuver, ProductVal, ProductCholi}
}

func (p Product) Valid() bool {
	switch p {
	case ProductPapadi, ProductTuver, ProductVal, ProductCholi:
		return true
	}
	return false
}

// Area is one of the market regions (mandis) served.
type Area string

const (
	AreaSurat        Area = "Surat"
	AreaJahangirpura Area = "Jahangirpura"
	AreaAdajan       Area = "Adajan"
	AreaPal          Area = "Pal"
	AreaVesu         Area = "Vesu"
)

func Areas() []Area {
	return []Area{AreaSurat, AreaJahangirpura, AreaAdajan, AreaPal, AreaVesu}
}

func (a Area) Valid() bool {
	switch a {
	case AreaSurat, AreaJahangirpura, AreaAdajan, AreaPal, AreaVesu:
		return true
	}
	return false
}

// Weight is the package-size variant an order is sold in.
type Weight string

const (
	Weight250G Weight = "250g"
	Weight500G Weight = "500g"
	Weight1KG  Weight = "1kg"
	Weight5KG  Weight = "5kg"
)

func Weights() []Weight {
	return []Weight{Weight250G, Weight500G, Weight1KG, Weight5KG}
}

func (w Weight) Valid() bool {
	switch w {
	case Weight250G, Weight500G, Weight1KG, Weight5KG:
		return true
	}
	return false
}

// PaymentStatus tracks whether the customer has settled the order.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPending PaymentStatus = "Pending"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPaid || s == PaymentPending
}

// SaleOrder is one recorded sale transaction. Orders are immutable after
// creation; they are only ever deleted, individually or via a full reset.
//
// TotalPackages mirrors Quantity. The field is redundant but stays on the
// wire because existing remote records carry it.
type SaleOrder struct {
	ID            string        `json:"id"`
	Product       Product       `json:"product"`
	Date          string        `json:"date"` // ISO 8601 date, e.g. "2024-01-01"
	CustomerName  string        `json:"customerName"`
	CustomerPhone string        `json:"customerPhone,omitempty"`
	Area          Area          `json:"area"`
	Weight        Weight        `json:"weight"`
	Quantity      int           `json:"quantity"`
	TotalPackages int           `json:"totalPackages"`
	TotalPrice    float64       `json:"totalPrice"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     int64         `json:"createdAt"` // epoch milliseconds
}
