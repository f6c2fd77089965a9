package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"lavanderia/backend/internal/cache"
	"lavanderia/backend/internal/domain"
	"lavanderia/backend/internal/store"
)

const dashboardStatsKey = "dashboard:stats"

// ValidationError carries the full list of messages for a rejected payload so
// the API can return them all at once.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

type Service struct {
	repo       store.Repository
	statsCache cache.StatsCache
	statsTTL   time.Duration
}

func New(repo store.Repository, statsCache cache.StatsCache, statsTTL time.Duration) *Service {
	if statsCache == nil {
		statsCache = cache.NoopStatsCache{}
	}
	if statsTTL <= 0 {
		statsTTL = 30 * time.Second
	}

	return &Service{
		repo:       repo,
		statsCache: statsCache,
		statsTTL:   statsTTL,
	}
}

func (s *Service) SearchCustomers(ctx context.Context, query string, limit int) ([]domain.Customer, error) {
	return s.repo.SearchCustomers(ctx, query, limit)
}

func (s *Service) OrderByTicket(ctx context.Context, ticket string) (*domain.OrderWithCustomer, error) {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" {
		return nil, store.ErrInvalidRow
	}
	return s.repo.GetOrderByTicket(ctx, ticket)
}

func (s *Service) OrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, store.ErrInvalidRow
	}
	return s.repo.ListOrdersByCustomer(ctx, customerID)
}

func (s *Service) CreateInventoryEntry(ctx context.Context, req domain.InventoryEntryCreateRequest) (*domain.InventoryEntry, error) {
	registro := strings.TrimSpace(req.Registro)
	if registro == "" {
		return nil, store.ErrInvalidRow
	}
	return s.repo.CreateInventoryEntry(ctx, domain.InventoryEntry{
		Registro: registro,
		Phone:    strings.TrimSpace(req.Phone),
	})
}

func (s *Service) ListInventory(ctx context.Context, limit int) ([]domain.InventoryRow, error) {
	return s.repo.ListInventory(ctx, limit)
}

func (s *Service) UpdateInventoryPhone(ctx context.Context, id string, phone string) (*domain.InventoryEntry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, store.ErrInvalidRow
	}
	return s.repo.UpdateInventoryPhone(ctx, id, strings.TrimSpace(phone))
}

func (s *Service) DeleteInventoryEntry(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidRow
	}
	return s.repo.DeleteInventoryEntry(ctx, id)
}

// ValidateSale checks a cart payload and returns every problem found, not
// just the first.
func ValidateSale(req domain.SaleCreateRequest) []string {
	messages := make([]string, 0, 4)

	if len(req.Items) == 0 {
		messages = append(messages, "sale must contain at least one item")
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.ProductName) == "" {
			messages = append(messages, fmt.Sprintf("item %d: product name is required", i+1))
		}
		if item.PriceCents < 0 {
			messages = append(messages, fmt.Sprintf("item %d: price must not be negative", i+1))
		}
		if item.Quantity < 1 {
			messages = append(messages, fmt.Sprintf("item %d: quantity must be at least 1", i+1))
		}
	}

	if req.TotalCents < 0 {
		messages = append(messages, "total must not be negative")
	}

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method != domain.PaymentMethodCash && method != domain.PaymentMethodCard {
		messages = append(messages, "payment method must be cash or card")
	}
	if method == domain.PaymentMethodCash && req.CashReceivedCents < req.TotalCents {
		messages = append(messages, "cash received must cover the total")
	}

	var computed int64
	for _, item := range req.Items {
		if item.PriceCents >= 0 && item.Quantity > 0 {
			computed += item.PriceCents * int64(item.Quantity)
		}
	}
	if len(req.Items) > 0 && req.TotalCents >= 0 && req.TotalCents != computed {
		messages = append(messages, fmt.Sprintf("total %d does not match item sum %d", req.TotalCents, computed))
	}

	return messages
}

// CreateSale validates the cart, recomputes subtotals and change server-side
// and writes the sale atomically.
func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.SaleCreateResponse, error) {
	if messages := ValidateSale(req); len(messages) > 0 {
		return domain.SaleCreateResponse{}, &ValidationError{Messages: messages}
	}

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	items := make([]domain.SaleItem, 0, len(req.Items))
	var total int64
	for _, item := range req.Items {
		subtotal := item.PriceCents * int64(item.Quantity)
		items = append(items, domain.SaleItem{
			ProductName:   strings.TrimSpace(item.ProductName),
			Category:      strings.TrimSpace(item.Category),
			PriceCents:    item.PriceCents,
			Quantity:      item.Quantity,
			SubtotalCents: subtotal,
		})
		total += subtotal
	}

	sale := domain.Sale{
		CustomerName:  strings.TrimSpace(req.CustomerName),
		PaymentMethod: method,
		TotalCents:    total,
		Items:         items,
	}
	if method == domain.PaymentMethodCash {
		sale.CashReceivedCents = req.CashReceivedCents
		sale.ChangeGivenCents = req.CashReceivedCents - total
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return domain.SaleCreateResponse{}, err
	}

	return domain.SaleCreateResponse{
		SaleID:           created.ID,
		TotalCents:       created.TotalCents,
		ChangeGivenCents: created.ChangeGivenCents,
		ItemCount:        len(created.Items),
		CreatedAt:        created.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (s *Service) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, limit)
}

func (s *Service) SaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, store.ErrInvalidRow
	}
	return s.repo.GetSaleByID(ctx, id)
}

func (s *Service) SalesStats(ctx context.Context) (domain.SalesStats, error) {
	return s.repo.SalesStats(ctx)
}

func (s *Service) SalesOverview(ctx context.Context, days int) ([]domain.SalesOverviewPoint, error) {
	if days < 1 || days > 365 {
		days = 7
	}
	return s.repo.SalesOverview(ctx, days)
}

func (s *Service) CategoryDistribution(ctx context.Context) ([]domain.CategoryShare, error) {
	return s.repo.CategoryDistribution(ctx)
}

func (s *Service) TopProducts(ctx context.Context, limit int) ([]domain.ProductStat, error) {
	return s.repo.TopProducts(ctx, limit)
}

func (s *Service) DailyReport(ctx context.Context, date string) (domain.DailyReport, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return domain.DailyReport{}, store.ErrInvalidRow
	}
	return s.repo.DailyReport(ctx, date)
}

// DashboardStats reads through the stats cache. Cache failures degrade to a
// direct repository read.
func (s *Service) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	cached, found, err := s.statsCache.Get(ctx, dashboardStatsKey)
	if err != nil {
		log.Printf("[service] WARN: stats cache get: %v", err)
	}
	if found && cached != nil {
		return *cached, nil
	}

	stats, err := s.repo.DashboardStats(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	if err := s.statsCache.Set(ctx, dashboardStatsKey, &stats, s.statsTTL); err != nil {
		log.Printf("[service] WARN: stats cache set: %v", err)
	}
	return stats, nil
}

func (s *Service) CheckCustomerTable(ctx context.Context) (domain.TableStructure, error) {
	return s.repo.CheckCustomerTable(ctx)
}

func (s *Service) SetupCustomerTable(ctx context.Context) error {
	return s.repo.SetupCustomerTable(ctx)
}
