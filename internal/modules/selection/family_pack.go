package selection

import "github.com/georgemunganga/footcare-storefront/internal/modules/catalog"

const familyPackSize = 4

// FamilyPack builds the bundle line from the first four products: priced at
// their combined final price less discount, stocked at the scarcest member.
// It returns false when fewer than four products are offered.
func FamilyPack(products []catalog.Product, discount float64) (Item, bool) {
	if len(products) < familyPackSize {
		return Item{}, false
	}

	var original, final float64
	stock := -1
	for _, p := range products[:familyPackSize] {
		p.Normalize()
		original += p.MainPrice
		final += p.FinalPrice
		if stock < 0 || p.StockQuantity < stock {
			stock = p.StockQuantity
		}
	}

	price := final - discount
	if price < 0 {
		price = 0
	}

	return Item{
		Key:           FamilyPackKey,
		ProductID:     FamilyPackKey,
		Name:          "Complete Family Pack",
		Description:   "All four premium products together at a special price",
		Image:         products[0].Image,
		Price:         round2(price),
		OriginalPrice: round2(original),
		StockQuantity: stock,
		FamilyPack:    true,
	}, true
}
