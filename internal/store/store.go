// Package store keeps recipes in SQLite. Ingredient line costs are never
// written; they are recomputed from lot and usage every time a recipe is
// loaded.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/costeo/internal/costing"
	"github.com/Simplici0/costeo/internal/pricing"
	"github.com/Simplici0/costeo/internal/units"
)

// ErrNotFound is returned when no recipe has the requested id.
var ErrNotFound = errors.New("recipe not found")

// Store is a SQLite-backed recipe repository.
type Store struct {
	db *sql.DB
}

// New returns a Store over an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Summary is one row of the recipe list.
type Summary struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	IngredientCount int     `json:"ingredientCount"`
	TotalCost       float64 `json:"totalCost"`
	FinalPrice      float64 `json:"finalPrice"`
	PortionPrice    float64 `json:"portionPrice"`
	UpdatedAt       string  `json:"updatedAt"`
}

const recipeColumns = `
	id,
	name,
	packaging_cost,
	decoration_cost,
	baking_cost,
	labor_minutes,
	hourly_rate,
	fixed_cost_allocation,
	profit_percentage,
	portions`

const lineColumns = `
	id,
	recipe_id,
	name,
	lot_quantity,
	lot_unit,
	lot_total_price,
	usage_quantity,
	usage_unit`

// Create inserts a new recipe with its ingredient lines.
func (s *Store) Create(ctx context.Context, r *pricing.Recipe) error {
	return s.inTx(ctx, "create recipe", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipes (`+recipeColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, recipeArgs(r)...); err != nil {
			return fmt.Errorf("insert recipe: %w", err)
		}
		return insertLines(ctx, tx, r)
	})
}

// Save replaces the stored parameters and ingredient lines of an existing
// recipe.
func (s *Store) Save(ctx context.Context, r *pricing.Recipe) error {
	return s.inTx(ctx, "save recipe", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE recipes
			SET
				name = ?,
				packaging_cost = ?,
				decoration_cost = ?,
				baking_cost = ?,
				labor_minutes = ?,
				hourly_rate = ?,
				fixed_cost_allocation = ?,
				profit_percentage = ?,
				portions = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, append(recipeArgs(r)[1:], r.ID)...)
		if err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}
		if affected == 0 {
			return ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM ingredient_lines WHERE recipe_id = ?`, r.ID); err != nil {
			return fmt.Errorf("clear ingredient lines: %w", err)
		}
		return insertLines(ctx, tx, r)
	})
}

// Get loads one recipe with its lines in their original order.
func (s *Store) Get(ctx context.Context, id string) (*pricing.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)
	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query recipe: %w", err)
	}

	byID := map[string]*pricing.Recipe{r.ID: r}
	if err := s.loadLines(ctx, byID, `WHERE recipe_id = ?`, id); err != nil {
		return nil, err
	}
	return r, nil
}

// likeEscaper makes a user query match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List returns recipe summaries, most recently updated first. A non-empty
// query filters by a substring of the name; % and _ match literally, and
// case is ignored for ASCII letters only (SQLite LIKE).
func (s *Store) List(ctx context.Context, query string) ([]Summary, error) {
	query = strings.TrimSpace(query)
	search := "%" + likeEscaper.Replace(query) + "%"
	filter := `(? = '' OR name LIKE ? ESCAPE '\')`

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recipeColumns+`, updated_at
		FROM recipes
		WHERE `+filter+`
		ORDER BY datetime(updated_at) DESC, name ASC, id ASC
	`, query, search)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}

	var (
		order     []*pricing.Recipe
		updatedAt = map[string]string{}
		byID      = map[string]*pricing.Recipe{}
	)
	for rows.Next() {
		var updated string
		r, err := scanRecipe(rows, &updated)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		order = append(order, r)
		byID[r.ID] = r
		updatedAt[r.ID] = updated
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}
	rows.Close()

	if len(order) > 0 {
		where := `WHERE recipe_id IN (SELECT id FROM recipes WHERE ` + filter + `)`
		if err := s.loadLines(ctx, byID, where, query, search); err != nil {
			return nil, err
		}
	}

	summaries := make([]Summary, 0, len(order))
	for _, r := range order {
		totals := pricing.ComputeTotals(r).Totals
		summaries = append(summaries, Summary{
			ID:              r.ID,
			Name:            r.Name,
			IngredientCount: len(r.Lines()),
			TotalCost:       totals.TotalCost,
			FinalPrice:      totals.FinalPrice,
			PortionPrice:    totals.PortionPrice,
			UpdatedAt:       updatedAt[r.ID],
		})
	}
	return summaries, nil
}

// Delete removes a recipe and its lines.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s transaction: %w", op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s transaction: %w", op, err)
	}
	return nil
}

// loadLines attaches stored lines to the recipes in byID. Every cost is
// recomputed while restoring.
func (s *Store) loadLines(ctx context.Context, byID map[string]*pricing.Recipe, where string, args ...any) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+lineColumns+`
		FROM ingredient_lines
		`+where+`
		ORDER BY recipe_id, position
	`, args...)
	if err != nil {
		return fmt.Errorf("query ingredient lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, recipeID, name string
			lot                costing.Lot
			usage              costing.Usage
			lotUnit, usageUnit string
		)
		if err := rows.Scan(&id, &recipeID, &name, &lot.Quantity, &lotUnit, &lot.TotalPrice, &usage.Quantity, &usageUnit); err != nil {
			return fmt.Errorf("scan ingredient line: %w", err)
		}
		lot.Unit = units.Unit(lotUnit)
		usage.Unit = units.Unit(usageUnit)

		r, ok := byID[recipeID]
		if !ok {
			continue
		}
		if _, err := r.RestoreIngredientLine(id, name, lot, usage); err != nil {
			return fmt.Errorf("restore ingredient line %s of recipe %s: %w", id, recipeID, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate ingredient lines: %w", err)
	}
	return nil
}

func insertLines(ctx context.Context, tx *sql.Tx, r *pricing.Recipe) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ingredient_lines (`+lineColumns+`, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare ingredient line insert: %w", err)
	}
	defer stmt.Close()

	for i, line := range r.Lines() {
		if _, err := stmt.ExecContext(ctx,
			line.ID,
			r.ID,
			line.Name,
			line.Lot.Quantity,
			string(line.Lot.Unit),
			line.Lot.TotalPrice,
			line.Usage.Quantity,
			string(line.Usage.Unit),
			i,
		); err != nil {
			return fmt.Errorf("insert ingredient line %s: %w", line.ID, err)
		}
	}
	return nil
}

func recipeArgs(r *pricing.Recipe) []any {
	return []any{
		r.ID,
		r.Name,
		r.PackagingCost,
		r.DecorationCost,
		r.BakingCost,
		r.LaborMinutes,
		r.HourlyRate,
		r.FixedCostAllocation,
		r.ProfitPercentage,
		r.Portions,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row scanner, extra ...any) (*pricing.Recipe, error) {
	r := &pricing.Recipe{}
	dest := []any{
		&r.ID,
		&r.Name,
		&r.PackagingCost,
		&r.DecorationCost,
		&r.BakingCost,
		&r.LaborMinutes,
		&r.HourlyRate,
		&r.FixedCostAllocation,
		&r.ProfitPercentage,
		&r.Portions,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return r, nil
}
