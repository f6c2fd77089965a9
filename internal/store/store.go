package store

import (
	"context"
	"errors"

	"lavanderia/backend/internal/domain"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidSale = errors.New("invalid sale")
	ErrInvalidRow  = errors.New("invalid row")
)

type Repository interface {
	SearchCustomers(ctx context.Context, query string, limit int) ([]domain.Customer, error)
	GetOrderByTicket(ctx context.Context, ticket string) (*domain.OrderWithCustomer, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	ImportOrders(ctx context.Context, groups []domain.OrderGroup) (domain.OrderImportSummary, error)
	ImportCustomers(ctx context.Context, customers []domain.Customer) (domain.CustomerImportSummary, error)
	CheckCustomerTable(ctx context.Context) (domain.TableStructure, error)
	SetupCustomerTable(ctx context.Context) error
	CreateInventoryEntry(ctx context.Context, entry domain.InventoryEntry) (*domain.InventoryEntry, error)
	ListInventory(ctx context.Context, limit int) ([]domain.InventoryRow, error)
	UpdateInventoryPhone(ctx context.Context, id string, phone string) (*domain.InventoryEntry, error)
	DeleteInventoryEntry(ctx context.Context, id string) error
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	ListSales(ctx context.Context, limit int) ([]domain.Sale, error)
	GetSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	SalesStats(ctx context.Context) (domain.SalesStats, error)
	SalesOverview(ctx context.Context, days int) ([]domain.SalesOverviewPoint, error)
	CategoryDistribution(ctx context.Context) ([]domain.CategoryShare, error)
	TopProducts(ctx context.Context, limit int) ([]domain.ProductStat, error)
	DailyReport(ctx context.Context, date string) (domain.DailyReport, error)
	DashboardStats(ctx context.Context) (domain.DashboardStats, error)
}
