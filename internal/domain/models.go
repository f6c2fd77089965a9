package domain

import "time"

// Customer ids are assigned by the shop's ticketing system, not generated
// here. Upserts are keyed on that external id.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type Order struct {
	Number     string        `json:"number"`
	Ticket     string        `json:"ticket"`
	CustomerID string        `json:"customer_id"`
	TotalCents int64         `json:"total_cents"`
	Date       string        `json:"date"`
	Details    []OrderDetail `json:"details,omitempty"`
}

type OrderDetail struct {
	Number      string `json:"number"`
	Process     string `json:"process"`
	Description string `json:"description"`
	Pieces      int    `json:"pieces"`
	Quantity    int    `json:"quantity"`
	Date        string `json:"date"`
	PriceCents  int64  `json:"price_cents"`
}

type OrderWithCustomer struct {
	Order
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone,omitempty"`
}

// InventoryEntry marks a ticket as physically received in the shop. The
// registro references Order.Ticket by convention only.
type InventoryEntry struct {
	ID        string    `json:"id"`
	Registro  string    `json:"registro"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type InventoryEntryCreateRequest struct {
	Registro string `json:"registro"`
	Phone    string `json:"phone,omitempty"`
}

type InventoryPhoneUpdateRequest struct {
	Phone string `json:"phone"`
}

// InventoryRow is the display join of an inventory entry with its order and
// customer, when the ticket matches an imported order.
type InventoryRow struct {
	ID           string `json:"id"`
	Registro     string `json:"registro"`
	Phone        string `json:"phone,omitempty"`
	OrderNumber  string `json:"order_number,omitempty"`
	OrderDate    string `json:"order_date,omitempty"`
	TotalCents   int64  `json:"total_cents"`
	CustomerID   string `json:"customer_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
}

type SaleItem struct {
	ProductName   string `json:"product_name"`
	Category      string `json:"category"`
	PriceCents    int64  `json:"price_cents"`
	Quantity      int    `json:"quantity"`
	SubtotalCents int64  `json:"subtotal_cents"`
}

type Sale struct {
	ID                string     `json:"id"`
	CustomerName      string     `json:"customer_name,omitempty"`
	PaymentMethod     string     `json:"payment_method"`
	TotalCents        int64      `json:"total_cents"`
	CashReceivedCents int64      `json:"cash_received_cents"`
	ChangeGivenCents  int64      `json:"change_given_cents"`
	CreatedAt         time.Time  `json:"created_at"`
	Items             []SaleItem `json:"items,omitempty"`
}

type SaleItemRequest struct {
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	PriceCents  int64  `json:"price_cents"`
	Quantity    int    `json:"quantity"`
}

type SaleCreateRequest struct {
	CustomerName      string            `json:"customer_name,omitempty"`
	PaymentMethod     string            `json:"payment_method"`
	TotalCents        int64             `json:"total_cents"`
	CashReceivedCents int64             `json:"cash_received_cents"`
	Items             []SaleItemRequest `json:"items"`
}

type SaleCreateResponse struct {
	SaleID           string `json:"sale_id"`
	TotalCents       int64  `json:"total_cents"`
	ChangeGivenCents int64  `json:"change_given_cents"`
	ItemCount        int    `json:"item_count"`
	CreatedAt        string `json:"created_at"`
}

// OrderGroup is one reconciled spreadsheet group: the order header, the
// customer it belongs to, and its detail lines.
type OrderGroup struct {
	Order    Order
	Customer Customer
	Details  []OrderDetail
}

type OrderImportSummary struct {
	OrdersImported    int      `json:"orders_imported"`
	DetailsImported   int      `json:"details_imported"`
	CustomersUpserted int      `json:"customers_upserted"`
	RowsSkipped       int      `json:"rows_skipped"`
	ErrorCount        int      `json:"error_count"`
	Errors            []string `json:"errors,omitempty"`
}

type CustomerImportSummary struct {
	Added      int      `json:"added"`
	Updated    int      `json:"updated"`
	ErrorCount int      `json:"error_count"`
	Errors     []string `json:"errors,omitempty"`
}

// TableStructure reports whether the customers table exists and carries the
// columns the importer writes to.
type TableStructure struct {
	TableExists    bool     `json:"table_exists"`
	Columns        []string `json:"columns"`
	MissingColumns []string `json:"missing_columns,omitempty"`
	Ready          bool     `json:"ready"`
}

type SalesStats struct {
	TotalSales        int64 `json:"total_sales"`
	RevenueCents      int64 `json:"revenue_cents"`
	AvgSaleCents      int64 `json:"avg_sale_cents"`
	TodaySales        int64 `json:"today_sales"`
	TodayRevenueCents int64 `json:"today_revenue_cents"`
}

type SalesOverviewPoint struct {
	Date         string `json:"date"`
	Sales        int64  `json:"sales"`
	RevenueCents int64  `json:"revenue_cents"`
}

type CategoryShare struct {
	Category     string `json:"category"`
	Quantity     int64  `json:"quantity"`
	RevenueCents int64  `json:"revenue_cents"`
}

type ProductStat struct {
	ProductName  string `json:"product_name"`
	Category     string `json:"category"`
	Quantity     int64  `json:"quantity"`
	RevenueCents int64  `json:"revenue_cents"`
}

type DailyReport struct {
	Date         string `json:"date"`
	Sales        int64  `json:"sales"`
	RevenueCents int64  `json:"revenue_cents"`
	CashCents    int64  `json:"cash_cents"`
	CardCents    int64  `json:"card_cents"`
	ItemsSold    int64  `json:"items_sold"`
}

type DashboardStats struct {
	Orders           int64  `json:"orders"`
	Customers        int64  `json:"customers"`
	InventoryEntries int64  `json:"inventory_entries"`
	Sales            int64  `json:"sales"`
	RevenueCents     int64  `json:"revenue_cents"`
	GeneratedAt      string `json:"generated_at"`
}

type StoredFile struct {
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
)
