package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog item. Nutrition values are per 100g.
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	Category      string          `gorm:"type:text;not null;default:''" json:"category"` // comma-joined
	Calories      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"calories"`
	Protein       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"protein"`
	Carbohydrates decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"carbohydrates"`
	Fat           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"fat"`
	Allergens     *string         `gorm:"type:text" json:"allergens"` // comma-joined, NULL when none selected
	ProducerID    *uuid.UUID      `gorm:"type:uuid;index" json:"producer_id"`
	Producer      *User           `gorm:"foreignKey:ProducerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CategoryList splits the stored category column
func (p *Product) CategoryList() []string {
	return SplitList(p.Category)
}

// SetCategoryList stores the categories comma-joined
func (p *Product) SetCategoryList(categories []string) {
	p.Category = strings.Join(categories, ",")
}

// AllergenList splits the stored allergens column
func (p *Product) AllergenList() []string {
	if p.Allergens == nil {
		return []string{}
	}
	return SplitList(*p.Allergens)
}

// SetAllergenList stores allergens comma-joined; an empty list clears the column
func (p *Product) SetAllergenList(allergens []string) {
	if len(allergens) == 0 {
		p.Allergens = nil
		return
	}
	joined := strings.Join(allergens, ",")
	p.Allergens = &joined
}

// IsOwnedBy reports whether the product was created by the given account
func (p *Product) IsOwnedBy(userID uuid.UUID) bool {
	return p.ProducerID != nil && *p.ProducerID == userID
}

// SplitList decodes a comma-joined column, dropping empty entries
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Option lists offered by the product form
var (
	AvailableCategories = []string{"Meat", "Fish", "Vegetable", "Fruit", "Pasta", "Legume", "Drink"}
	AvailableAllergens  = []string{"Milk", "Egg", "Peanut", "Soy", "Wheat", "Tree Nut", "Shellfish", "Fish", "Sesame", "None"}
)
