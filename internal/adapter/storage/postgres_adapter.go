package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/fuelops/fuel-station/internal/core/domain"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint breach.
const uniqueViolation = "23505"

type PostgresAdapter struct {
	db *sql.DB
}

func NewPostgresAdapter(db *sql.DB) *PostgresAdapter {
	return &PostgresAdapter{db: db}
}

// CreateFuelType pre-checks the name, inserts the row and its first open price
// segment in one transaction. The pre-check is only a fast path: a concurrent
// creator can still slip past it, so the unique constraint violation from the
// insert is the authoritative conflict signal.
func (p *PostgresAdapter) CreateFuelType(ctx context.Context, name string, price, initialStock decimal.Decimal) (*domain.FuelType, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM fuel_types WHERE name = $1`, name,
	).Scan(&existing)
	if err == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrConflict, name)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check name: %w", err)
	}

	var ft domain.FuelType
	err = tx.QueryRowContext(ctx, `
		INSERT INTO fuel_types (name, price_per_litre, stock_litres)
		VALUES ($1, $2, $3)
		RETURNING id, name, price_per_litre, stock_litres, created_at, updated_at`,
		name, price, initialStock,
	).Scan(&ft.ID, &ft.Name, &ft.PricePerLitre, &ft.StockLitres, &ft.CreatedAt, &ft.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %q", domain.ErrConflict, name)
		}
		return nil, fmt.Errorf("insert fuel type: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fuel_price_history (fuel_type_id, price_per_litre, valid_from)
		VALUES ($1, $2, now())`,
		ft.ID, price,
	)
	if err != nil {
		return nil, fmt.Errorf("insert price history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &ft, nil
}

// UpdatePrice rotates the price history: close the open segment, set the live
// price, open a new segment. The three steps run in one transaction so history
// never ends up without an open segment or with a closed segment whose price
// update was lost. Concurrent updates are last-commit-wins on the live column.
func (p *PostgresAdapter) UpdatePrice(ctx context.Context, fuelTypeID int64, price decimal.Decimal) (*domain.FuelType, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE fuel_price_history SET valid_to = now()
		WHERE fuel_type_id = $1 AND valid_to IS NULL`,
		fuelTypeID,
	)
	if err != nil {
		return nil, fmt.Errorf("close price segment: %w", err)
	}

	var ft domain.FuelType
	err = tx.QueryRowContext(ctx, `
		UPDATE fuel_types
		   SET price_per_litre = $2, updated_at = now()
		 WHERE id = $1
		RETURNING id, name, price_per_litre, stock_litres, created_at, updated_at`,
		fuelTypeID, price,
	).Scan(&ft.ID, &ft.Name, &ft.PricePerLitre, &ft.StockLitres, &ft.CreatedAt, &ft.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, fuelTypeID)
	}
	if err != nil {
		return nil, fmt.Errorf("update price: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fuel_price_history (fuel_type_id, price_per_litre)
		VALUES ($1, $2)`,
		fuelTypeID, price,
	)
	if err != nil {
		return nil, fmt.Errorf("insert price history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &ft, nil
}

// RefillStock is a single additive statement; the returned row carries the
// post-update level.
func (p *PostgresAdapter) RefillStock(ctx context.Context, fuelTypeID int64, litres decimal.Decimal) (*domain.StockLevel, error) {
	var lvl domain.StockLevel
	err := p.db.QueryRowContext(ctx, `
		UPDATE fuel_types
		   SET stock_litres = stock_litres + $2, updated_at = now()
		 WHERE id = $1
		RETURNING id, name, stock_litres`,
		fuelTypeID, litres,
	).Scan(&lvl.FuelTypeID, &lvl.Name, &lvl.StockLitres)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, fuelTypeID)
	}
	if err != nil {
		return nil, fmt.Errorf("refill stock: %w", err)
	}
	return &lvl, nil
}

// RecordSale runs the stock check, the decrement, the price read and the sale
// insert as one data-modifying CTE. The WHERE clause re-asserts sufficiency,
// so two concurrent sales can never both observe the same stock; the price
// feeding price_at_sale is read in the same conditional step as the decrement.
func (p *PostgresAdapter) RecordSale(ctx context.Context, fuelTypeID int64, litres decimal.Decimal) (*domain.Sale, error) {
	var s domain.Sale
	err := p.db.QueryRowContext(ctx, `
		WITH updated AS (
			UPDATE fuel_types
			   SET stock_litres = stock_litres - $2, updated_at = now()
			 WHERE id = $1 AND stock_litres >= $2
			RETURNING id, price_per_litre
		)
		INSERT INTO sales (fuel_type_id, litres, price_at_sale, amount)
		SELECT id, $2, price_per_litre, round($2 * price_per_litre, 2)
		  FROM updated
		RETURNING id, fuel_type_id, litres, price_at_sale, amount, sold_at`,
		fuelTypeID, litres,
	).Scan(&s.ID, &s.FuelTypeID, &s.Litres, &s.PriceAtSale, &s.Amount, &s.SoldAt)
	if errors.Is(err, sql.ErrNoRows) {
		// The conditional write touched nothing: tell an unknown fuel type
		// apart from one that exists with insufficient stock.
		var one int
		probeErr := p.db.QueryRowContext(ctx,
			`SELECT 1 FROM fuel_types WHERE id = $1`, fuelTypeID,
		).Scan(&one)
		if errors.Is(probeErr, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, fuelTypeID)
		}
		if probeErr != nil {
			return nil, fmt.Errorf("probe fuel type: %w", probeErr)
		}
		return nil, fmt.Errorf("%w: fuel type %d", domain.ErrInsufficientStock, fuelTypeID)
	}
	if err != nil {
		return nil, fmt.Errorf("record sale: %w", err)
	}
	return &s, nil
}

func (p *PostgresAdapter) ListFuelTypes(ctx context.Context) ([]domain.FuelType, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, price_per_litre, stock_litres, created_at, updated_at
		  FROM fuel_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list fuel types: %w", err)
	}
	defer rows.Close()

	var out []domain.FuelType
	for rows.Next() {
		var ft domain.FuelType
		if err := rows.Scan(&ft.ID, &ft.Name, &ft.PricePerLitre, &ft.StockLitres, &ft.CreatedAt, &ft.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan fuel type: %w", err)
		}
		out = append(out, ft)
	}
	return out, rows.Err()
}

func (p *PostgresAdapter) ListInventory(ctx context.Context) ([]domain.StockLevel, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, stock_litres FROM fuel_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var out []domain.StockLevel
	for rows.Next() {
		var lvl domain.StockLevel
		if err := rows.Scan(&lvl.FuelTypeID, &lvl.Name, &lvl.StockLitres); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		out = append(out, lvl)
	}
	return out, rows.Err()
}

func (p *PostgresAdapter) ListSales(ctx context.Context, filter domain.SalesFilter) ([]domain.Sale, error) {
	where, args := salesWhere(filter, "")
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, fuel_type_id, litres, price_at_sale, amount, sold_at
		  FROM sales `+where+` ORDER BY sold_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var out []domain.Sale
	for rows.Next() {
		var s domain.Sale
		if err := rows.Scan(&s.ID, &s.FuelTypeID, &s.Litres, &s.PriceAtSale, &s.Amount, &s.SoldAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// salesWhere builds the optional time-range/fuel-type filter shared by sale
// listings and reports. prefix qualifies columns when the query joins tables.
func salesWhere(filter domain.SalesFilter, prefix string) (string, []any) {
	var clauses []string
	var args []any
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("%ssold_at >= $%d", prefix, len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("%ssold_at <= $%d", prefix, len(args)))
	}
	if filter.FuelTypeID != nil {
		args = append(args, *filter.FuelTypeID)
		clauses = append(clauses, fmt.Sprintf("%sfuel_type_id = $%d", prefix, len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
