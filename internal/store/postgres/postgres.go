package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"lavanderia/backend/internal/domain"
	"lavanderia/backend/internal/store"
	"lavanderia/backend/internal/xid"
)

const importErrorCap = 10

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SearchCustomers(ctx context.Context, query string, limit int) ([]domain.Customer, error) {
	if limit < 1 {
		limit = 50
	}
	pattern := "%" + strings.TrimSpace(query) + "%"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(phone, '')
		FROM customers
		WHERE id ILIKE $1 OR name ILIKE $1 OR COALESCE(phone, '') ILIKE $1
		ORDER BY name
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, limit)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

// execer lets the customer upsert run against either the pool or an open
// transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// upsertCustomerTx updates a customer row in place or inserts it when the id
// is new. The returned bool is true for an insert.
func (s *Store) upsertCustomerTx(ctx context.Context, db execer, customer domain.Customer) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE customers
		SET name = $2, phone = NULLIF($3, ''), updated_at = now()
		WHERE id = $1
	`, customer.ID, customer.Name, customer.Phone)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return false, nil
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), now(), now())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, phone = EXCLUDED.phone, updated_at = now()
	`, customer.ID, customer.Name, customer.Phone)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) GetOrderByTicket(ctx context.Context, ticket string) (*domain.OrderWithCustomer, error) {
	var order domain.OrderWithCustomer
	var phone sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT o.number, o.ticket, o.customer_id, o.total_cents, o.date,
			COALESCE(c.name, ''), c.phone
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.ticket = $1
	`, ticket).Scan(&order.Number, &order.Ticket, &order.CustomerID, &order.TotalCents, &order.Date, &order.CustomerName, &phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if phone.Valid {
		order.CustomerPhone = phone.String
	}

	details, err := s.listOrderDetails(ctx, order.Number)
	if err != nil {
		return nil, err
	}
	order.Details = details
	return &order, nil
}

func (s *Store) listOrderDetails(ctx context.Context, number string) ([]domain.OrderDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, process, description, pieces, quantity, date, price_cents
		FROM order_details
		WHERE number = $1
		ORDER BY id ASC
	`, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]domain.OrderDetail, 0, 8)
	for rows.Next() {
		var d domain.OrderDetail
		if err := rows.Scan(&d.Number, &d.Process, &d.Description, &d.Pieces, &d.Quantity, &d.Date, &d.PriceCents); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

func (s *Store) ListOrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, ticket, customer_id, total_cents, date
		FROM orders
		WHERE customer_id = $1
		ORDER BY date DESC, number DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, 16)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.Number, &o.Ticket, &o.CustomerID, &o.TotalCents, &o.Date); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// ImportOrders writes all order groups inside one transaction. Each group
// runs under a savepoint: a statement error rolls back that group alone and
// is counted, so the rest still commit. Without the savepoint the first bad
// statement would abort the whole transaction (25P02) and take every
// following group down with it. Orders already present are skipped, so a
// re-upload repairs gaps without duplicating detail lines.
func (s *Store) ImportOrders(ctx context.Context, groups []domain.OrderGroup) (domain.OrderImportSummary, error) {
	summary := domain.OrderImportSummary{}
	if len(groups) == 0 {
		return summary, nil
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return summary, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, group := range groups {
		if group.Order.Number == "" {
			summary.RowsSkipped++
			continue
		}

		if _, err := tx.ExecContext(ctx, `SAVEPOINT import_group`); err != nil {
			return summary, err
		}

		counts, err := s.importOrderGroupTx(ctx, tx, group)
		if err != nil {
			if _, rbErr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT import_group`); rbErr != nil {
				return domain.OrderImportSummary{}, rbErr
			}
			summary.ErrorCount++
			if len(summary.Errors) < importErrorCap {
				summary.Errors = append(summary.Errors, fmt.Sprintf("order %s: %v", group.Order.Number, err))
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT import_group`); err != nil {
			return summary, err
		}

		if counts.customerUpserted {
			summary.CustomersUpserted++
		}
		if counts.orderInserted {
			summary.OrdersImported++
			summary.DetailsImported += counts.details
		} else {
			summary.RowsSkipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.OrderImportSummary{}, err
	}
	return summary, nil
}

type orderGroupCounts struct {
	customerUpserted bool
	orderInserted    bool
	details          int
}

// importOrderGroupTx writes one group's customer, order and detail rows. On
// error the caller rolls the savepoint back, so the counts only reach the
// summary when the whole group sticks.
func (s *Store) importOrderGroupTx(ctx context.Context, tx *sql.Tx, group domain.OrderGroup) (orderGroupCounts, error) {
	var counts orderGroupCounts

	if group.Customer.ID != "" {
		if _, err := s.upsertCustomerTx(ctx, tx, group.Customer); err != nil {
			return counts, fmt.Errorf("customer upsert: %w", err)
		}
		counts.customerUpserted = true
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (number, ticket, customer_id, total_cents, date, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, now())
		ON CONFLICT (number) DO NOTHING
	`, group.Order.Number, group.Order.Ticket, group.Order.CustomerID, group.Order.TotalCents, group.Order.Date)
	if err != nil {
		return counts, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return counts, err
	}
	if inserted == 0 {
		return counts, nil
	}
	counts.orderInserted = true

	for _, detail := range group.Details {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_details (number, process, description, pieces, quantity, date, price_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, detail.Number, detail.Process, detail.Description, detail.Pieces, detail.Quantity, detail.Date, detail.PriceCents)
		if err != nil {
			return counts, fmt.Errorf("detail: %w", err)
		}
		counts.details++
	}
	return counts, nil
}

// ImportCustomers upserts every row inside a single transaction, each row
// under its own savepoint so a database error discards that row alone
// instead of aborting the transaction; the error message list is capped.
func (s *Store) ImportCustomers(ctx context.Context, customers []domain.Customer) (domain.CustomerImportSummary, error) {
	summary := domain.CustomerImportSummary{}
	if len(customers) == 0 {
		return summary, nil
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return summary, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, customer := range customers {
		if strings.TrimSpace(customer.ID) == "" || strings.TrimSpace(customer.Name) == "" {
			summary.ErrorCount++
			if len(summary.Errors) < importErrorCap {
				summary.Errors = append(summary.Errors, fmt.Sprintf("customer %q: missing id or name", customer.ID))
			}
			continue
		}

		if _, err := tx.ExecContext(ctx, `SAVEPOINT import_row`); err != nil {
			return summary, err
		}
		created, err := s.upsertCustomerTx(ctx, tx, customer)
		if err != nil {
			if _, rbErr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT import_row`); rbErr != nil {
				return domain.CustomerImportSummary{}, rbErr
			}
			summary.ErrorCount++
			if len(summary.Errors) < importErrorCap {
				summary.Errors = append(summary.Errors, fmt.Sprintf("customer %s: %v", customer.ID, err))
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT import_row`); err != nil {
			return summary, err
		}
		if created {
			summary.Added++
		} else {
			summary.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.CustomerImportSummary{}, err
	}
	return summary, nil
}

var customerTableColumns = []string{"id", "name", "phone"}

func (s *Store) CheckCustomerTable(ctx context.Context) (domain.TableStructure, error) {
	structure := domain.TableStructure{Columns: make([]string, 0, 8)}

	rows, err := s.db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = 'customers'
		ORDER BY ordinal_position
	`)
	if err != nil {
		return structure, err
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return structure, err
		}
		structure.Columns = append(structure.Columns, column)
		present[column] = true
	}
	if err := rows.Err(); err != nil {
		return structure, err
	}

	structure.TableExists = len(structure.Columns) > 0
	for _, required := range customerTableColumns {
		if !present[required] {
			structure.MissingColumns = append(structure.MissingColumns, required)
		}
	}
	structure.Ready = structure.TableExists && len(structure.MissingColumns) == 0
	return structure, nil
}

func (s *Store) SetupCustomerTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

func (s *Store) CreateInventoryEntry(ctx context.Context, entry domain.InventoryEntry) (*domain.InventoryEntry, error) {
	if strings.TrimSpace(entry.Registro) == "" {
		return nil, store.ErrInvalidRow
	}
	if entry.ID == "" {
		entry.ID = xid.New("inv")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_entries (id, registro, phone, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4)
	`, entry.ID, entry.Registro, entry.Phone, entry.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidRow
		}
		return nil, err
	}
	created := entry
	return &created, nil
}

func (s *Store) ListInventory(ctx context.Context, limit int) ([]domain.InventoryRow, error) {
	if limit < 1 {
		limit = 200
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.registro, COALESCE(i.phone, ''),
			COALESCE(o.number, ''), COALESCE(o.date, ''), COALESCE(o.total_cents, 0),
			COALESCE(o.customer_id, ''), COALESCE(c.name, '')
		FROM inventory_entries i
		LEFT JOIN orders o ON o.ticket = i.registro
		LEFT JOIN customers c ON c.id = o.customer_id
		ORDER BY i.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.InventoryRow, 0, limit)
	for rows.Next() {
		var row domain.InventoryRow
		if err := rows.Scan(&row.ID, &row.Registro, &row.Phone, &row.OrderNumber, &row.OrderDate, &row.TotalCents, &row.CustomerID, &row.CustomerName); err != nil {
			return nil, err
		}
		entries = append(entries, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) UpdateInventoryPhone(ctx context.Context, id string, phone string) (*domain.InventoryEntry, error) {
	var entry domain.InventoryEntry
	var stored sql.NullString
	err := s.db.QueryRowContext(ctx, `
		UPDATE inventory_entries
		SET phone = NULLIF($2, '')
		WHERE id = $1
		RETURNING id, registro, phone, created_at
	`, id, phone).Scan(&entry.ID, &entry.Registro, &stored, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if stored.Valid {
		entry.Phone = stored.String
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	return &entry, nil
}

func (s *Store) DeleteInventoryEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM inventory_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateSale inserts the sale header and every line item in one transaction.
// Any insert failure rolls back the whole sale.
func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, store.ErrInvalidSale
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, customer_name, payment_method, total_cents, cash_received_cents, change_given_cents, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)
	`, sale.ID, sale.CustomerName, sale.PaymentMethod, sale.TotalCents, sale.CashReceivedCents, sale.ChangeGivenCents, sale.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidSale
		}
		return nil, err
	}

	for _, item := range sale.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, product_name, category, price_cents, quantity, subtotal_cents)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, sale.ID, item.ProductName, item.Category, item.PriceCents, item.Quantity, item.SubtotalCents)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := sale
	return &created, nil
}

func (s *Store) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(customer_name, ''), payment_method, total_cents,
			cash_received_cents, change_given_cents, created_at
		FROM sales
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, limit)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.CustomerName, &sale.PaymentMethod, &sale.TotalCents, &sale.CashReceivedCents, &sale.ChangeGivenCents, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sale.CreatedAt = sale.CreatedAt.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(customer_name, ''), payment_method, total_cents,
			cash_received_cents, change_given_cents, created_at
		FROM sales
		WHERE id = $1
	`, id).Scan(&sale.ID, &sale.CustomerName, &sale.PaymentMethod, &sale.TotalCents, &sale.CashReceivedCents, &sale.ChangeGivenCents, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.CreatedAt = sale.CreatedAt.UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_name, category, price_cents, quantity, subtotal_cents
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY id ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SaleItem, 0, 8)
	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ProductName, &item.Category, &item.PriceCents, &item.Quantity, &item.SubtotalCents); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sale.Items = items
	return &sale, nil
}

func (s *Store) SalesStats(ctx context.Context) (domain.SalesStats, error) {
	var stats domain.SalesStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*)::bigint,
			COALESCE(SUM(total_cents), 0)::bigint,
			COALESCE(SUM(CASE WHEN (created_at AT TIME ZONE 'UTC')::date = (now() AT TIME ZONE 'UTC')::date THEN 1 ELSE 0 END), 0)::bigint,
			COALESCE(SUM(CASE WHEN (created_at AT TIME ZONE 'UTC')::date = (now() AT TIME ZONE 'UTC')::date THEN total_cents ELSE 0 END), 0)::bigint
		FROM sales
	`).Scan(&stats.TotalSales, &stats.RevenueCents, &stats.TodaySales, &stats.TodayRevenueCents)
	if err != nil {
		return stats, err
	}
	if stats.TotalSales > 0 {
		stats.AvgSaleCents = stats.RevenueCents / stats.TotalSales
	}
	return stats, nil
}

func (s *Store) SalesOverview(ctx context.Context, days int) ([]domain.SalesOverviewPoint, error) {
	if days < 1 {
		days = 7
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT to_char((created_at AT TIME ZONE 'UTC')::date, 'YYYY-MM-DD'), COUNT(*)::bigint, COALESCE(SUM(total_cents), 0)::bigint
		FROM sales
		WHERE (created_at AT TIME ZONE 'UTC')::date >= (now() AT TIME ZONE 'UTC')::date - ($1::int - 1)
		GROUP BY (created_at AT TIME ZONE 'UTC')::date
		ORDER BY (created_at AT TIME ZONE 'UTC')::date
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]domain.SalesOverviewPoint, 0, days)
	for rows.Next() {
		var point domain.SalesOverviewPoint
		if err := rows.Scan(&point.Date, &point.Sales, &point.RevenueCents); err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

func (s *Store) CategoryDistribution(ctx context.Context) ([]domain.CategoryShare, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COALESCE(SUM(quantity), 0)::bigint, COALESCE(SUM(subtotal_cents), 0)::bigint
		FROM sale_items
		GROUP BY category
		ORDER BY SUM(quantity) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shares := make([]domain.CategoryShare, 0, 8)
	for rows.Next() {
		var share domain.CategoryShare
		if err := rows.Scan(&share.Category, &share.Quantity, &share.RevenueCents); err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shares, nil
}

func (s *Store) TopProducts(ctx context.Context, limit int) ([]domain.ProductStat, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_name, MAX(category), COALESCE(SUM(quantity), 0)::bigint, COALESCE(SUM(subtotal_cents), 0)::bigint
		FROM sale_items
		GROUP BY product_name
		ORDER BY SUM(quantity) DESC, product_name
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.ProductStat, 0, limit)
	for rows.Next() {
		var stat domain.ProductStat
		if err := rows.Scan(&stat.ProductName, &stat.Category, &stat.Quantity, &stat.RevenueCents); err != nil {
			return nil, err
		}
		products = append(products, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) DailyReport(ctx context.Context, date string) (domain.DailyReport, error) {
	report := domain.DailyReport{Date: date}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*)::bigint,
			COALESCE(SUM(total_cents), 0)::bigint,
			COALESCE(SUM(CASE WHEN payment_method = 'cash' THEN total_cents ELSE 0 END), 0)::bigint,
			COALESCE(SUM(CASE WHEN payment_method = 'card' THEN total_cents ELSE 0 END), 0)::bigint
		FROM sales
		WHERE (created_at AT TIME ZONE 'UTC')::date = $1::date
	`, date).Scan(&report.Sales, &report.RevenueCents, &report.CashCents, &report.CardCents)
	if err != nil {
		return report, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(si.quantity), 0)::bigint
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE (s.created_at AT TIME ZONE 'UTC')::date = $1::date
	`, date).Scan(&report.ItemsSold)
	if err != nil {
		return report, err
	}
	return report, nil
}

func (s *Store) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	var stats domain.DashboardStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM orders)::bigint,
			(SELECT COUNT(*) FROM customers)::bigint,
			(SELECT COUNT(*) FROM inventory_entries)::bigint,
			(SELECT COUNT(*) FROM sales)::bigint,
			(SELECT COALESCE(SUM(total_cents), 0) FROM sales)::bigint
	`).Scan(&stats.Orders, &stats.Customers, &stats.InventoryEntries, &stats.Sales, &stats.RevenueCents)
	if err != nil {
		return stats, err
	}
	stats.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	return stats, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
