package core

import (
	"github.com/shopspring/decimal"
)

// Recipe is the single production procedure for one product, defined for a
// reference batch of OutputQuantity units.
type Recipe struct {
	ID             int             `json:"id"`
	ProductID      int             `json:"product_id"`
	Method         string          `json:"method"`
	OutputQuantity decimal.Decimal `json:"output_quantity"`
	Lines          []BOMLine       `json:"lines"`
}

// BOMLine is one component requirement per run of the recipe.
type BOMLine struct {
	ID               int             `json:"id"`
	RecipeID         int             `json:"recipe_id"`
	Component        ItemRef         `json:"component"`
	QuantityRequired decimal.Decimal `json:"quantity_required"`
	Unit             Unit            `json:"unit"`
}

// RecipeInput describes a recipe to create or replace.
type RecipeInput struct {
	ProductID      int               `json:"product_id"`
	Method         string            `json:"method"`
	OutputQuantity decimal.Decimal   `json:"output_quantity"`
	Lines          []RecipeLineInput `json:"lines"`
}

// RecipeLineInput is one component requirement of a RecipeInput.
type RecipeLineInput struct {
	Component ItemRef         `json:"component"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      Unit            `json:"unit"`
}
