package store

import (
	"context"
	"database/sql"
	"fmt"

	"production-ledger/internal/core"
)

// InsertRecipe writes the recipe header and its lines, filling in the ids.
func (t *ledgerTx) InsertRecipe(ctx context.Context, r *core.Recipe) error {
	err := t.queryRow(ctx, `
		INSERT INTO recipes (product_id, method, output_quantity)
		VALUES ($1, $2, $3)
		RETURNING id`,
		r.ProductID, r.Method, r.OutputQuantity,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert recipe for product %d: %w", r.ProductID, translate(err))
	}

	for i := range r.Lines {
		line := &r.Lines[i]
		line.RecipeID = r.ID
		var material, product sql.NullInt64
		switch line.Component.Kind {
		case core.KindMaterial:
			material = sql.NullInt64{Int64: int64(line.Component.ID), Valid: true}
		case core.KindProduct:
			product = sql.NullInt64{Int64: int64(line.Component.ID), Valid: true}
		default:
			return &core.ValidationError{Field: "component", Message: fmt.Sprintf("unknown item kind %q", line.Component.Kind)}
		}
		err := t.queryRow(ctx, `
			INSERT INTO bom_lines (recipe_id, component_material_id, component_product_id, quantity_required, unit)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			r.ID, material, product, line.QuantityRequired, string(line.Unit),
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("insert bill-of-materials line %d: %w", i+1, translate(err))
		}
	}
	return nil
}

func (t *ledgerTx) GetRecipeByProduct(ctx context.Context, productID int) (*core.Recipe, error) {
	r := &core.Recipe{ProductID: productID}
	err := t.queryRow(ctx, `
		SELECT id, method, output_quantity
		FROM recipes
		WHERE product_id = $1`,
		productID,
	).Scan(&r.ID, &r.Method, &r.OutputQuantity)
	if err != nil {
		return nil, notFound(err, "recipe for product", productID)
	}

	rows, err := t.query(ctx, `
		SELECT id, component_material_id, component_product_id, quantity_required, unit
		FROM bom_lines
		WHERE recipe_id = $1
		ORDER BY id`,
		r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query bill-of-materials lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		line := core.BOMLine{RecipeID: r.ID}
		var material, product sql.NullInt64
		if err := rows.Scan(&line.ID, &material, &product, &line.QuantityRequired, &line.Unit); err != nil {
			return nil, fmt.Errorf("scan bill-of-materials line: %w", err)
		}
		if material.Valid {
			line.Component = core.MaterialRef(int(material.Int64))
		} else {
			line.Component = core.ProductRef(int(product.Int64))
		}
		r.Lines = append(r.Lines, line)
	}
	return r, rows.Err()
}

func (t *ledgerTx) DeleteRecipe(ctx context.Context, recipeID int) error {
	if _, err := t.exec(ctx, `DELETE FROM bom_lines WHERE recipe_id = $1`, recipeID); err != nil {
		return fmt.Errorf("delete bill-of-materials lines of recipe %d: %w", recipeID, err)
	}
	res, err := t.exec(ctx, `DELETE FROM recipes WHERE id = $1`, recipeID)
	if err != nil {
		return fmt.Errorf("delete recipe %d: %w", recipeID, translate(err))
	}
	return mustAffect(res, "recipe", recipeID)
}
