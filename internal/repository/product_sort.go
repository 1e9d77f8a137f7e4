package repository

import "strings"

// ProductSort orders a product listing by one whitelisted column
type ProductSort struct {
	Column string
	Desc   bool
}

var productSortColumns = map[string]string{
	"name":          "name",
	"category":      "category",
	"calories":      "calories",
	"protein":       "protein",
	"fat":           "fat",
	"carbohydrates": "carbohydrates",
}

// DefaultProductSort is name ascending
var DefaultProductSort = ProductSort{Column: "name"}

// ParseProductSort resolves a user supplied sort key and direction.
// Unknown keys fall back to name ascending regardless of direction.
func ParseProductSort(key, direction string) ProductSort {
	column, ok := productSortColumns[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return DefaultProductSort
	}
	return ProductSort{
		Column: column,
		Desc:   strings.EqualFold(strings.TrimSpace(direction), "desc"),
	}
}
