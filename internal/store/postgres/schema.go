package postgres

import "context"

// EnsureSchema creates any missing tables. Statements are idempotent so the
// server can run it unconditionally at startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			number TEXT PRIMARY KEY,
			ticket TEXT NOT NULL DEFAULT '',
			customer_id TEXT REFERENCES customers (id),
			total_cents BIGINT NOT NULL DEFAULT 0,
			date TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS orders_ticket_idx ON orders (ticket)`,
		`CREATE INDEX IF NOT EXISTS orders_customer_idx ON orders (customer_id)`,
		`CREATE TABLE IF NOT EXISTS order_details (
			id BIGSERIAL PRIMARY KEY,
			number TEXT NOT NULL REFERENCES orders (number),
			process TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			pieces INT NOT NULL DEFAULT 0,
			quantity INT NOT NULL DEFAULT 0,
			date TEXT NOT NULL DEFAULT '',
			price_cents BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS order_details_number_idx ON order_details (number)`,
		`CREATE TABLE IF NOT EXISTS inventory_entries (
			id TEXT PRIMARY KEY,
			registro TEXT NOT NULL,
			phone TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS inventory_entries_registro_idx ON inventory_entries (registro)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id TEXT PRIMARY KEY,
			customer_name TEXT,
			payment_method TEXT NOT NULL,
			total_cents BIGINT NOT NULL,
			cash_received_cents BIGINT NOT NULL DEFAULT 0,
			change_given_cents BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS sale_items (
			id BIGSERIAL PRIMARY KEY,
			sale_id TEXT NOT NULL REFERENCES sales (id),
			product_name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			price_cents BIGINT NOT NULL,
			quantity INT NOT NULL,
			subtotal_cents BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS sale_items_sale_idx ON sale_items (sale_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
