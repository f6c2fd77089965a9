package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"lavanderia/backend/internal/domain"
	"lavanderia/backend/internal/store"
	"lavanderia/backend/internal/xid"
)

const importErrorCap = 10

// Store is the in-memory repository used in dev mode (no DATABASE_URL) and by
// the test suites. All methods take the same all-or-nothing view of writes as
// the postgres store: nothing is visible until the whole operation succeeds.
type Store struct {
	mu               sync.RWMutex
	customers        map[string]domain.Customer
	orders           map[string]domain.Order
	detailsByNumber  map[string][]domain.OrderDetail
	inventoryByID    map[string]domain.InventoryEntry
	salesByID        map[string]domain.Sale
	saleOrder        []string
	customerTableSet bool

	// failSaleAfter simulates a mid-transaction item insert failure: when
	// > 0, CreateSale fails after accepting that many items.
	failSaleAfter int
}

func New() *Store {
	return &Store{
		customers:        map[string]domain.Customer{},
		orders:           map[string]domain.Order{},
		detailsByNumber:  map[string][]domain.OrderDetail{},
		inventoryByID:    map[string]domain.InventoryEntry{},
		salesByID:        map[string]domain.Sale{},
		customerTableSet: true,
	}
}

// NewSeeded returns a store preloaded with a small demo dataset so the server
// is usable without a database.
func NewSeeded() *Store {
	s := New()
	s.customers["C-1001"] = domain.Customer{ID: "C-1001", Name: "Maria Flores", Phone: "555-0101"}
	s.customers["C-1002"] = domain.Customer{ID: "C-1002", Name: "Jose Rivera"}
	s.orders["48211"] = domain.Order{Number: "48211", Ticket: "T-9001", CustomerID: "C-1001", TotalCents: 45000, Date: "2026-01-12"}
	s.detailsByNumber["48211"] = []domain.OrderDetail{
		{Number: "48211", Process: "LAVADO", Description: "3 de camisas", Pieces: 6, Quantity: 2, Date: "2026-01-12", PriceCents: 15000},
		{Number: "48211", Process: "PLANCHADO", Description: "pantalon", Pieces: 1, Quantity: 1, Date: "2026-01-12", PriceCents: 30000},
	}
	s.inventoryByID["inv-seed-1"] = domain.InventoryEntry{ID: "inv-seed-1", Registro: "T-9001", CreatedAt: time.Now().UTC()}
	return s
}

// FailNextSaleAfter arms the item-insert failure simulation for the next
// CreateSale call. n is the number of items accepted before the failure.
func (s *Store) FailNextSaleAfter(n int) {
	s.mu.Lock()
	s.failSaleAfter = n
	s.mu.Unlock()
}

func (s *Store) SearchCustomers(_ context.Context, query string, limit int) ([]domain.Customer, error) {
	if limit < 1 {
		limit = 50
	}
	needle := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Customer, 0, limit)
	for _, c := range s.customers {
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.ID), needle) &&
			!strings.Contains(strings.ToLower(c.Name), needle) &&
			!strings.Contains(strings.ToLower(c.Phone), needle) {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) GetOrderByTicket(_ context.Context, ticket string) (*domain.OrderWithCustomer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, order := range s.orders {
		if order.Ticket != ticket {
			continue
		}
		found := domain.OrderWithCustomer{Order: order}
		found.Details = append([]domain.OrderDetail(nil), s.detailsByNumber[order.Number]...)
		if customer, ok := s.customers[order.CustomerID]; ok {
			found.CustomerName = customer.Name
			found.CustomerPhone = customer.Phone
		}
		return &found, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListOrdersByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, 8)
	for _, order := range s.orders {
		if order.CustomerID == customerID {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].Date == orders[j].Date {
			return orders[i].Number > orders[j].Number
		}
		return orders[i].Date > orders[j].Date
	})
	return orders, nil
}

func (s *Store) ImportOrders(_ context.Context, groups []domain.OrderGroup) (domain.OrderImportSummary, error) {
	summary := domain.OrderImportSummary{}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, group := range groups {
		if group.Order.Number == "" {
			summary.RowsSkipped++
			continue
		}
		if group.Customer.ID != "" {
			s.customers[group.Customer.ID] = group.Customer
			summary.CustomersUpserted++
		}
		if _, exists := s.orders[group.Order.Number]; exists {
			summary.RowsSkipped++
			continue
		}
		order := group.Order
		order.Details = nil
		s.orders[order.Number] = order
		summary.OrdersImported++

		s.detailsByNumber[order.Number] = append([]domain.OrderDetail(nil), group.Details...)
		summary.DetailsImported += len(group.Details)
	}
	return summary, nil
}

func (s *Store) ImportCustomers(_ context.Context, customers []domain.Customer) (domain.CustomerImportSummary, error) {
	summary := domain.CustomerImportSummary{}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, customer := range customers {
		if strings.TrimSpace(customer.ID) == "" || strings.TrimSpace(customer.Name) == "" {
			summary.ErrorCount++
			if len(summary.Errors) < importErrorCap {
				summary.Errors = append(summary.Errors, fmt.Sprintf("customer %q: missing id or name", customer.ID))
			}
			continue
		}
		if _, exists := s.customers[customer.ID]; exists {
			summary.Updated++
		} else {
			summary.Added++
		}
		s.customers[customer.ID] = customer
	}
	return summary, nil
}

func (s *Store) CheckCustomerTable(_ context.Context) (domain.TableStructure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.customerTableSet {
		return domain.TableStructure{MissingColumns: []string{"id", "name", "phone"}}, nil
	}
	return domain.TableStructure{
		TableExists: true,
		Columns:     []string{"id", "name", "phone"},
		Ready:       true,
	}, nil
}

func (s *Store) SetupCustomerTable(_ context.Context) error {
	s.mu.Lock()
	s.customerTableSet = true
	s.mu.Unlock()
	return nil
}

func (s *Store) CreateInventoryEntry(_ context.Context, entry domain.InventoryEntry) (*domain.InventoryEntry, error) {
	if strings.TrimSpace(entry.Registro) == "" {
		return nil, store.ErrInvalidRow
	}
	if entry.ID == "" {
		entry.ID = xid.New("inv")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.inventoryByID[entry.ID]; exists {
		return nil, store.ErrInvalidRow
	}
	s.inventoryByID[entry.ID] = entry
	created := entry
	return &created, nil
}

func (s *Store) ListInventory(_ context.Context, limit int) ([]domain.InventoryRow, error) {
	if limit < 1 {
		limit = 200
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.InventoryEntry, 0, len(s.inventoryByID))
	for _, entry := range s.inventoryByID {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	if len(entries) > limit {
		entries = entries[:limit]
	}

	rows := make([]domain.InventoryRow, 0, len(entries))
	for _, entry := range entries {
		row := domain.InventoryRow{ID: entry.ID, Registro: entry.Registro, Phone: entry.Phone}
		for _, order := range s.orders {
			if order.Ticket != entry.Registro {
				continue
			}
			row.OrderNumber = order.Number
			row.OrderDate = order.Date
			row.TotalCents = order.TotalCents
			row.CustomerID = order.CustomerID
			if customer, ok := s.customers[order.CustomerID]; ok {
				row.CustomerName = customer.Name
			}
			break
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) UpdateInventoryPhone(_ context.Context, id string, phone string) (*domain.InventoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.inventoryByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	entry.Phone = phone
	s.inventoryByID[id] = entry
	updated := entry
	return &updated, nil
}

func (s *Store) DeleteInventoryEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inventoryByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.inventoryByID, id)
	return nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, store.ErrInvalidSale
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSaleAfter > 0 {
		failAfter := s.failSaleAfter
		s.failSaleAfter = 0
		if failAfter <= len(sale.Items) {
			// Nothing was committed: the sale and its accepted items
			// are discarded together, like a rolled-back transaction.
			return nil, fmt.Errorf("simulated item insert failure after %d items", failAfter)
		}
	}

	if _, exists := s.salesByID[sale.ID]; exists {
		return nil, store.ErrInvalidSale
	}
	stored := sale
	stored.Items = append([]domain.SaleItem(nil), sale.Items...)
	s.salesByID[sale.ID] = stored
	s.saleOrder = append(s.saleOrder, sale.ID)
	created := stored
	return &created, nil
}

func (s *Store) ListSales(_ context.Context, limit int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, limit)
	for i := len(s.saleOrder) - 1; i >= 0 && len(sales) < limit; i-- {
		sale := s.salesByID[s.saleOrder[i]]
		sale.Items = nil
		sales = append(sales, sale)
	}
	return sales, nil
}

func (s *Store) GetSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.salesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := sale
	found.Items = append([]domain.SaleItem(nil), sale.Items...)
	return &found, nil
}

func (s *Store) SalesStats(_ context.Context) (domain.SalesStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.SalesStats
	today := time.Now().UTC().Format("2006-01-02")
	for _, sale := range s.salesByID {
		stats.TotalSales++
		stats.RevenueCents += sale.TotalCents
		if sale.CreatedAt.UTC().Format("2006-01-02") == today {
			stats.TodaySales++
			stats.TodayRevenueCents += sale.TotalCents
		}
	}
	if stats.TotalSales > 0 {
		stats.AvgSaleCents = stats.RevenueCents / stats.TotalSales
	}
	return stats, nil
}

func (s *Store) SalesOverview(_ context.Context, days int) ([]domain.SalesOverviewPoint, error) {
	if days < 1 {
		days = 7
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -(days - 1)).Format("2006-01-02")
	byDate := map[string]*domain.SalesOverviewPoint{}
	for _, sale := range s.salesByID {
		date := sale.CreatedAt.UTC().Format("2006-01-02")
		if date < cutoff {
			continue
		}
		point := byDate[date]
		if point == nil {
			point = &domain.SalesOverviewPoint{Date: date}
			byDate[date] = point
		}
		point.Sales++
		point.RevenueCents += sale.TotalCents
	}

	points := make([]domain.SalesOverviewPoint, 0, len(byDate))
	for _, point := range byDate {
		points = append(points, *point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}

func (s *Store) CategoryDistribution(_ context.Context) ([]domain.CategoryShare, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCategory := map[string]*domain.CategoryShare{}
	for _, sale := range s.salesByID {
		for _, item := range sale.Items {
			share := byCategory[item.Category]
			if share == nil {
				share = &domain.CategoryShare{Category: item.Category}
				byCategory[item.Category] = share
			}
			share.Quantity += int64(item.Quantity)
			share.RevenueCents += item.SubtotalCents
		}
	}

	shares := make([]domain.CategoryShare, 0, len(byCategory))
	for _, share := range byCategory {
		shares = append(shares, *share)
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Quantity == shares[j].Quantity {
			return shares[i].Category < shares[j].Category
		}
		return shares[i].Quantity > shares[j].Quantity
	})
	return shares, nil
}

func (s *Store) TopProducts(_ context.Context, limit int) ([]domain.ProductStat, error) {
	if limit < 1 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	byProduct := map[string]*domain.ProductStat{}
	for _, sale := range s.salesByID {
		for _, item := range sale.Items {
			stat := byProduct[item.ProductName]
			if stat == nil {
				stat = &domain.ProductStat{ProductName: item.ProductName, Category: item.Category}
				byProduct[item.ProductName] = stat
			}
			stat.Quantity += int64(item.Quantity)
			stat.RevenueCents += item.SubtotalCents
		}
	}

	products := make([]domain.ProductStat, 0, len(byProduct))
	for _, stat := range byProduct {
		products = append(products, *stat)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Quantity == products[j].Quantity {
			return products[i].ProductName < products[j].ProductName
		}
		return products[i].Quantity > products[j].Quantity
	})
	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (s *Store) DailyReport(_ context.Context, date string) (domain.DailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.DailyReport{Date: date}
	for _, sale := range s.salesByID {
		if sale.CreatedAt.UTC().Format("2006-01-02") != date {
			continue
		}
		report.Sales++
		report.RevenueCents += sale.TotalCents
		switch sale.PaymentMethod {
		case domain.PaymentMethodCash:
			report.CashCents += sale.TotalCents
		case domain.PaymentMethodCard:
			report.CardCents += sale.TotalCents
		}
		for _, item := range sale.Items {
			report.ItemsSold += int64(item.Quantity)
		}
	}
	return report, nil
}

func (s *Store) DashboardStats(_ context.Context) (domain.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.DashboardStats{
		Orders:           int64(len(s.orders)),
		Customers:        int64(len(s.customers)),
		InventoryEntries: int64(len(s.inventoryByID)),
		Sales:            int64(len(s.salesByID)),
		GeneratedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	for _, sale := range s.salesByID {
		stats.RevenueCents += sale.TotalCents
	}
	return stats, nil
}
