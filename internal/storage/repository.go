package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"vendas/internal/core"
	"vendas/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// mapConstraintErr translates sqlite constraint failures into the domain
// sentinels callers check with errors.Is.
func mapConstraintErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return core.ErrDuplicateKey
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return core.ErrReferentialIntegrity
	case errors.Is(err, sql.ErrNoRows):
		return core.ErrNotFound
	}
	return err
}

func parseDec(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse stored decimal %q: %w", s, err)
	}
	return d, nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (r *SQLiteRepository) CreateProduct(ctx context.Context, p core.Product) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (name, unit_cost) VALUES (?, ?)`,
		strings.TrimSpace(p.Name), p.UnitCost.String())
	if err != nil {
		return 0, fmt.Errorf("create product: %w", mapConstraintErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create product id: %w", err)
	}

	slog.InfoContext(ctx, "Product saved to SQLite", "id", id, "name", strings.TrimSpace(p.Name))
	return id, nil
}

func (r *SQLiteRepository) ListProducts(ctx context.Context) ([]core.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, unit_cost FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []core.Product
	for rows.Next() {
		var p core.Product
		var cost string
		if err := rows.Scan(&p.ID, &p.Name, &cost); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.UnitCost, err = parseDec(cost); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetProduct(ctx context.Context, id int64) (core.Product, error) {
	var p core.Product
	var cost string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, unit_cost FROM products WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &cost)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Product{}, core.ErrNotFound
		}
		return core.Product{}, fmt.Errorf("get product: %w", err)
	}
	if p.UnitCost, err = parseDec(cost); err != nil {
		return core.Product{}, err
	}
	return p, nil
}

func (r *SQLiteRepository) UpdateProduct(ctx context.Context, p core.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = ?, unit_cost = ? WHERE id = ?`,
		strings.TrimSpace(p.Name), p.UnitCost.String(), p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", mapConstraintErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteProduct(ctx context.Context, id int64, cascade bool) error {
	return r.deleteParent(ctx, "products", "product_id", id, cascade)
}

func (r *SQLiteRepository) CreateSaleDate(ctx context.Context, d core.SaleDate) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sale_dates (day) VALUES (?)`, d.Day.String())
	if err != nil {
		return 0, fmt.Errorf("create sale date: %w", mapConstraintErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create sale date id: %w", err)
	}

	slog.InfoContext(ctx, "Sale date saved to SQLite", "id", id, "day", d.Day.String())
	return id, nil
}

func (r *SQLiteRepository) ListSaleDates(ctx context.Context) ([]core.SaleDate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, day FROM sale_dates ORDER BY day ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sale dates: %w", err)
	}
	defer rows.Close()

	var out []core.SaleDate
	for rows.Next() {
		var d core.SaleDate
		var day string
		if err := rows.Scan(&d.ID, &day); err != nil {
			return nil, fmt.Errorf("scan sale date: %w", err)
		}
		if d.Day, err = core.ParseDay(day); err != nil {
			return nil, fmt.Errorf("stored day %q: %w", day, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale dates: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetSaleDate(ctx context.Context, id int64) (core.SaleDate, error) {
	var d core.SaleDate
	var day string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, day FROM sale_dates WHERE id = ?`, id).Scan(&d.ID, &day)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.SaleDate{}, core.ErrNotFound
		}
		return core.SaleDate{}, fmt.Errorf("get sale date: %w", err)
	}
	if d.Day, err = core.ParseDay(day); err != nil {
		return core.SaleDate{}, fmt.Errorf("stored day %q: %w", day, err)
	}
	return d, nil
}

func (r *SQLiteRepository) DeleteSaleDate(ctx context.Context, id int64, cascade bool) error {
	return r.deleteParent(ctx, "sale_dates", "date_id", id, cascade)
}

// deleteParent removes a products or sale_dates row. Without cascade it
// refuses while sales still reference the row; with cascade the dependent
// sales are removed in the same transaction.
func (r *SQLiteRepository) deleteParent(ctx context.Context, table, fkColumn string, id int64, cascade bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check %s: %w", table, err)
	}
	if !exists {
		return core.ErrNotFound
	}

	var referenced bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sales WHERE `+fkColumn+` = ?)`, id).Scan(&referenced)
	if err != nil {
		return fmt.Errorf("check dependent sales: %w", err)
	}
	if referenced && !cascade {
		return core.ErrReferentialIntegrity
	}
	if referenced {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE `+fkColumn+` = ?`, id); err != nil {
			return fmt.Errorf("delete dependent sales: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete from %s: %w", table, mapConstraintErr(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Row deleted from SQLite", "table", table, "id", id, "cascade", cascade)
	return nil
}

func (r *SQLiteRepository) CreateSale(ctx context.Context, s core.Sale) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sale_dates WHERE id = ?)`, s.DateID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check sale date: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("sale date %d: %w", s.DateID, core.ErrNotFound)
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)`, s.ProductID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check product: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("product %d: %w", s.ProductID, core.ErrNotFound)
	}

	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sales (date_id, product_id, quantity, unit_price, marketplace,
			variable_rate, fixed_fee_per_unit, tax_rate, anticipation_rate, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.DateID, s.ProductID, s.Quantity, s.UnitPrice.String(), s.Marketplace,
		s.Fees.VariableRate.String(), s.Fees.FixedFeePerUnit.String(),
		s.Fees.TaxRate.String(), s.Fees.AnticipationRate.String(),
		createdAt.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("create sale: %w", mapConstraintErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create sale id: %w", err)
	}

	slog.InfoContext(ctx, "Sale saved to SQLite",
		"id", id,
		"date_id", s.DateID,
		"product_id", s.ProductID,
		"quantity", s.Quantity,
		"unit_price", s.UnitPrice.String(),
		"marketplace", s.Marketplace)

	return id, nil
}

const saleColumns = `s.id, s.date_id, s.product_id, s.quantity, s.unit_price, s.marketplace,
	s.variable_rate, s.fixed_fee_per_unit, s.tax_rate, s.anticipation_rate, s.created_at,
	d.day, p.name, p.unit_cost`

const saleJoin = ` FROM sales s
	JOIN sale_dates d ON d.id = s.date_id
	JOIN products p ON p.id = s.product_id`

func (r *SQLiteRepository) ListSales(ctx context.Context, f ledger.SaleFilter) ([]core.SaleRow, error) {
	query := `SELECT ` + saleColumns + saleJoin
	var conds []string
	var args []any
	if f.ProductID > 0 {
		conds = append(conds, "s.product_id = ?")
		args = append(args, f.ProductID)
	}
	if f.Marketplace != "" {
		conds = append(conds, "s.marketplace = ?")
		args = append(args, f.Marketplace)
	}
	if !f.From.IsZero() {
		conds = append(conds, "d.day >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		conds = append(conds, "d.day <= ?")
		args = append(args, f.To.String())
	}
	// Stored days are ISO strings, so a year or year+month prefix match works.
	if f.Year > 0 && f.Month > 0 {
		conds = append(conds, "d.day LIKE ?")
		args = append(args, fmt.Sprintf("%04d-%02d-%%", f.Year, f.Month))
	} else if f.Year > 0 {
		conds = append(conds, "d.day LIKE ?")
		args = append(args, fmt.Sprintf("%04d-%%", f.Year))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY d.day ASC, s.id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var out []core.SaleRow
	for rows.Next() {
		row, err := scanSaleRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetSale(ctx context.Context, id int64) (core.SaleRow, error) {
	row, err := scanSaleRow(r.db.QueryRowContext(ctx,
		`SELECT `+saleColumns+saleJoin+` WHERE s.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.SaleRow{}, core.ErrNotFound
		}
		return core.SaleRow{}, err
	}
	return row, nil
}

func (r *SQLiteRepository) DeleteSale(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sales WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete sale rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Sale deleted from SQLite", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSaleRow(sc rowScanner) (core.SaleRow, error) {
	var row core.SaleRow
	var price, marketplace, varRate, fixedFee, taxRate, antRate, createdAt, day, cost string
	err := sc.Scan(&row.ID, &row.DateID, &row.ProductID, &row.Quantity, &price, &marketplace,
		&varRate, &fixedFee, &taxRate, &antRate, &createdAt,
		&day, &row.ProductName, &cost)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.SaleRow{}, err
		}
		return core.SaleRow{}, fmt.Errorf("scan sale: %w", err)
	}

	row.Marketplace = marketplace
	row.CreatedAt = parseTimestamp(createdAt)
	if row.UnitPrice, err = parseDec(price); err != nil {
		return core.SaleRow{}, err
	}
	if row.Fees.VariableRate, err = parseDec(varRate); err != nil {
		return core.SaleRow{}, err
	}
	if row.Fees.FixedFeePerUnit, err = parseDec(fixedFee); err != nil {
		return core.SaleRow{}, err
	}
	if row.Fees.TaxRate, err = parseDec(taxRate); err != nil {
		return core.SaleRow{}, err
	}
	if row.Fees.AnticipationRate, err = parseDec(antRate); err != nil {
		return core.SaleRow{}, err
	}
	if row.UnitCost, err = parseDec(cost); err != nil {
		return core.SaleRow{}, err
	}
	if row.Day, err = core.ParseDay(day); err != nil {
		return core.SaleRow{}, fmt.Errorf("stored day %q: %w", day, err)
	}
	return row, nil
}

// PendingMirrorSale is the minimal payload queued for the spreadsheet mirror.
type PendingMirrorSale struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// PendingMirrorSales returns sales that have not been mirrored yet.
func (r *SQLiteRepository) PendingMirrorSales(ctx context.Context, limit int) ([]PendingMirrorSale, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM sales WHERE synced_at IS NULL ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending mirror sales: %w", err)
	}
	defer rows.Close()

	var out []PendingMirrorSale
	for rows.Next() {
		var p PendingMirrorSale
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Version, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending sale: %w", err)
		}
		p.CreatedAt = parseTimestamp(createdAt)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending sales: %w", err)
	}
	return out, nil
}

// MarkMirrored records a successful mirror append.
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sales SET synced_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("mark sale mirrored: %w", err)
	}

	slog.InfoContext(ctx, "Sale marked as mirrored", "id", id)
	return nil
}

// MarkMirrorError counts a failed mirror attempt. The row stays pending.
func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sales SET sync_error = sync_error + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark sale mirror error: %w", err)
	}

	slog.WarnContext(ctx, "Sale marked with mirror error", "id", id)
	return nil
}
