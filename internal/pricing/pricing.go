package pricing

import "github.com/ambefarm/beantracker/pkg/models"

// rates holds the standing per-package price for every crop and weight
// variant. Operators can override the price at entry time; this table only
// supplies the default.
var rates = map[models.Product]map[models.Weight]float64{
	models.ProductPapadi: {
		models.Weight250G: 45,
		models.Weight500G: 85,
		models.Weight1KG:  160,
		models.Weight5KG:  750,
	},
	models.ProductTuver: {
		models.Weight250G: 50,
		models.Weight500G: 95,
		models.Weight1KG:  180,
		models.Weight5KG:  850,
	},
	models.ProductVal: {
		models.Weight250G: 40,
		models.Weight500G: 75,
		models.Weight1KG:  140,
		models.Weight5KG:  650,
	},
	models.ProductCholi: {
		models.Weight250G: 35,
		models.Weight500G: 65,
		models.Weight1KG:  120,
		models.Weight5KG:  550,
	},
}

// UnitPrice returns the default per-package price for the given crop and
// weight variant. The second return is false when either enum value is
// unknown.
func UnitPrice(p models.Product, w models.Weight) (float64, bool) {
	byWeight, ok := rates[p]
	if !ok {
		return 0, false
	}
	price, ok := byWeight[w]
	return price, ok
}
