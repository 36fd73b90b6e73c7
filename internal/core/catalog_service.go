package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// CatalogService maintains materials, products and their recipes.
type CatalogService interface {
	CreateItem(ctx context.Context, kind ItemKind, name string, unit Unit) (*Item, error)
	GetItem(ctx context.Context, ref ItemRef) (*Item, error)
	ListItems(ctx context.Context, kind ItemKind) ([]Item, error)

	// ListLots returns an item's lots. Lots at zero are only included when includeEmpty is set.
	ListLots(ctx context.Context, ref ItemRef, includeEmpty bool) ([]Lot, error)

	RenameItem(ctx context.Context, ref ItemRef, name string) error

	// DeleteItem fails with *InUseError while recipes, lots or orders reference the item.
	DeleteItem(ctx context.Context, ref ItemRef) error

	// SaveRecipe creates the product's recipe or replaces the existing one.
	SaveRecipe(ctx context.Context, input RecipeInput) (*Recipe, error)
	GetRecipe(ctx context.Context, productID int) (*Recipe, error)
	DeleteRecipe(ctx context.Context, productID int) error
}

type catalogService struct {
	store Store
}

// NewCatalogService constructs a CatalogService over store.
func NewCatalogService(store Store) CatalogService {
	return &catalogService{store: store}
}

func (s *catalogService) CreateItem(ctx context.Context, kind ItemKind, name string, unit Unit) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "is required"}
	}
	if !kind.Valid() {
		return nil, &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown item kind %q", kind)}
	}
	if !unit.Valid() {
		return nil, &ValidationError{Field: "unit", Message: fmt.Sprintf("unknown unit %q", unit)}
	}

	var item *Item
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		item, err = tx.CreateItem(ctx, kind, name, unit)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("item", item.Ref.String()).Str("name", item.Name).Str("unit", string(item.Unit)).Msg("item created")
	return item, nil
}

func (s *catalogService) GetItem(ctx context.Context, ref ItemRef) (*Item, error) {
	var item *Item
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		item, err = tx.GetItem(ctx, ref)
		return err
	})
	return item, err
}

func (s *catalogService) ListItems(ctx context.Context, kind ItemKind) ([]Item, error) {
	var items []Item
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		items, err = tx.ListItems(ctx, kind)
		return err
	})
	return items, err
}

func (s *catalogService) ListLots(ctx context.Context, ref ItemRef, includeEmpty bool) ([]Lot, error) {
	var lots []Lot
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetItem(ctx, ref); err != nil {
			return err
		}
		var err error
		if includeEmpty {
			lots, err = tx.ListLots(ctx, ref)
		} else {
			lots, err = tx.LotsFor(ctx, ref)
		}
		return err
	})
	return lots, err
}

func (s *catalogService) RenameItem(ctx context.Context, ref ItemRef, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	return s.store.InTx(ctx, func(tx Tx) error {
		return tx.RenameItem(ctx, ref, name)
	})
}

func (s *catalogService) DeleteItem(ctx context.Context, ref ItemRef) error {
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetItem(ctx, ref); err != nil {
			return err
		}
		refs, err := tx.ItemReferences(ctx, ref)
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return &InUseError{Entity: ref.Kind.label(), ID: ref.ID, References: refs}
		}
		return tx.DeleteItem(ctx, ref)
	})
	if err != nil {
		return err
	}
	log.Info().Str("item", ref.String()).Msg("item deleted")
	return nil
}

// SaveRecipe validates the recipe against the catalog. Lines for the same
// component and unit are merged; the same component in two different units
// is rejected.
func (s *catalogService) SaveRecipe(ctx context.Context, input RecipeInput) (*Recipe, error) {
	if !input.OutputQuantity.IsPositive() {
		return nil, &ValidationError{Field: "output_quantity", Message: "must be greater than zero"}
	}
	if len(input.Lines) == 0 {
		return nil, &ValidationError{Field: "lines", Message: "recipe must have at least one component"}
	}

	var recipe *Recipe
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetItem(ctx, ProductRef(input.ProductID)); err != nil {
			return err
		}

		var lines []BOMLine
		index := make(map[ItemRef]int)
		for i, l := range input.Lines {
			field := fmt.Sprintf("lines[%d]", i)
			if err := l.Component.validate(); err != nil {
				return err
			}
			if l.Component == ProductRef(input.ProductID) {
				return &ValidationError{Field: field, Message: "a product cannot be a component of its own recipe"}
			}
			if !l.Quantity.IsPositive() {
				return &ValidationError{Field: field + ".quantity", Message: "must be greater than zero"}
			}
			component, err := tx.GetItem(ctx, l.Component)
			if err != nil {
				return err
			}
			if !l.Unit.Valid() || !Convertible(l.Unit, component.Unit) {
				return &ValidationError{
					Field:   field + ".unit",
					Message: fmt.Sprintf("%q cannot be measured in %s (kept in %s)", component.Name, l.Unit, component.Unit),
				}
			}
			if j, ok := index[l.Component]; ok {
				if lines[j].Unit != l.Unit {
					return &ValidationError{
						Field:   field,
						Message: fmt.Sprintf("%q is listed twice in different units", component.Name),
					}
				}
				lines[j].QuantityRequired = lines[j].QuantityRequired.Add(l.Quantity)
				continue
			}
			index[l.Component] = len(lines)
			lines = append(lines, BOMLine{Component: l.Component, QuantityRequired: l.Quantity, Unit: l.Unit})
		}

		existing, err := tx.GetRecipeByProduct(ctx, input.ProductID)
		switch {
		case err == nil:
			if err := tx.DeleteRecipe(ctx, existing.ID); err != nil {
				return err
			}
		case !errors.Is(err, ErrNotFound):
			return err
		}

		recipe = &Recipe{
			ProductID:      input.ProductID,
			Method:         strings.TrimSpace(input.Method),
			OutputQuantity: input.OutputQuantity,
			Lines:          lines,
		}
		return tx.InsertRecipe(ctx, recipe)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("recipe_id", recipe.ID).
		Int("product_id", recipe.ProductID).
		Str("output_quantity", recipe.OutputQuantity.String()).
		Int("lines", len(recipe.Lines)).
		Msg("recipe saved")
	return recipe, nil
}

func (s *catalogService) GetRecipe(ctx context.Context, productID int) (*Recipe, error) {
	var recipe *Recipe
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		recipe, err = tx.GetRecipeByProduct(ctx, productID)
		return err
	})
	return recipe, err
}

func (s *catalogService) DeleteRecipe(ctx context.Context, productID int) error {
	return s.store.InTx(ctx, func(tx Tx) error {
		r, err := tx.GetRecipeByProduct(ctx, productID)
		if err != nil {
			return err
		}
		return tx.DeleteRecipe(ctx, r.ID)
	})
}
