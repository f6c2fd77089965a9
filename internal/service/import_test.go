package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"lavanderia/backend/internal/cache"
	"lavanderia/backend/internal/excel"
	"lavanderia/backend/internal/store/memory"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, cells := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func TestImportOrdersEndToEnd(t *testing.T) {
	repo := memory.New()
	svc := New(repo, cache.NoopStatsCache{}, 5*time.Second)
	ctx := context.Background()

	buf := buildWorkbook(t, [][]any{
		{"Número", "Ticket", "ID", "Nombre", "Teléfono", "Proceso", "Descripció", "Cantidad", "Fecha", "Precio", "Total"},
		{"48211", "T-9001", "C-1001", "Maria Flores", "555-0101", "", "", "", "15-Jan-24", "", "450.00"},
		{"48211", "", "", "", "", "LAVADO", "3 de camisas", "2", "15-Jan-24", "150.00", ""},
		{"48211", "", "", "", "", "PLANCHADO", "pantalon", "1", "15-Jan-24", "300.00", ""},
		{"48211", "", "", "", "", "", "", "", "", "", "450.00"},
		{"48212", "T-9002", "C-1002", "Jose Rivera", "", "", "", "", "16-Jan-24", "", "360.00"},
	})

	summary, err := svc.ImportOrders(ctx, buf)
	if err != nil {
		t.Fatalf("import orders: %v", err)
	}
	if summary.OrdersImported != 2 {
		t.Fatalf("expected 2 orders imported, got %d (%+v)", summary.OrdersImported, summary)
	}
	if summary.CustomersUpserted != 2 {
		t.Fatalf("expected 2 customers upserted, got %d", summary.CustomersUpserted)
	}
	if summary.ErrorCount != 0 {
		t.Fatalf("expected no errors, got %v", summary.Errors)
	}

	order, err := svc.OrderByTicket(ctx, "T-9001")
	if err != nil {
		t.Fatalf("order by ticket: %v", err)
	}
	if order.Number != "48211" {
		t.Fatalf("expected order 48211, got %s", order.Number)
	}
	if order.CustomerName != "Maria Flores" {
		t.Fatalf("expected joined customer name, got %q", order.CustomerName)
	}
	if order.TotalCents != 45000 {
		t.Fatalf("expected total 45000 cents, got %d", order.TotalCents)
	}
	if order.Date != "2024-01-15" {
		t.Fatalf("expected converted date, got %q", order.Date)
	}
	if len(order.Details) != 2 {
		t.Fatalf("expected 2 details (summary row dropped), got %d", len(order.Details))
	}
	if order.Details[0].Pieces != 6 {
		t.Fatalf("expected 3x2=6 pieces, got %d", order.Details[0].Pieces)
	}
	if order.Details[1].Pieces != 1 {
		t.Fatalf("expected plain quantity as pieces, got %d", order.Details[1].Pieces)
	}
}

func TestImportOrdersReimportRepairsWithoutDuplicating(t *testing.T) {
	repo := memory.New()
	svc := New(repo, cache.NoopStatsCache{}, 5*time.Second)
	ctx := context.Background()

	sheet := [][]any{
		{"Número", "Ticket", "ID", "Nombre", "Proceso", "Descripció", "Cantidad", "Fecha", "Precio", "Total"},
		{"48211", "T-9001", "C-1001", "Maria Flores", "LAVADO", "camisa", "1", "15-Jan-24", "150.00", "150.00"},
	}

	if _, err := svc.ImportOrders(ctx, buildWorkbook(t, sheet)); err != nil {
		t.Fatalf("first import: %v", err)
	}

	summary, err := svc.ImportOrders(ctx, buildWorkbook(t, sheet))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if summary.OrdersImported != 0 {
		t.Fatalf("expected 0 newly imported orders, got %d", summary.OrdersImported)
	}
	if summary.RowsSkipped == 0 {
		t.Fatal("expected the duplicate order to count as skipped")
	}

	orders, err := svc.OrdersByCustomer(ctx, "C-1001")
	if err != nil {
		t.Fatalf("orders by customer: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order after re-import, got %d", len(orders))
	}
}

func TestImportOrdersWarnsOnUnparseableDates(t *testing.T) {
	repo := memory.New()
	svc := New(repo, cache.NoopStatsCache{}, 5*time.Second)
	ctx := context.Background()

	buf := buildWorkbook(t, [][]any{
		{"Número", "Ticket", "ID", "Nombre", "Fecha", "Total"},
		{"48300", "T-9300", "C-1003", "Rosa Diaz", "fecha pendiente", "100.00"},
	})

	summary, err := svc.ImportOrders(ctx, buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.OrdersImported != 1 {
		t.Fatalf("expected the order to import anyway, got %+v", summary)
	}
	if summary.ErrorCount != 1 || len(summary.Errors) != 1 {
		t.Fatalf("expected one date warning, got %+v", summary)
	}

	order, err := svc.OrderByTicket(ctx, "T-9300")
	if err != nil {
		t.Fatalf("order by ticket: %v", err)
	}
	if order.Date != "fecha pendiente" {
		t.Fatalf("expected verbatim date, got %q", order.Date)
	}
}

func TestImportCustomersUpdatesNotDuplicates(t *testing.T) {
	repo := memory.New()
	svc := New(repo, cache.NoopStatsCache{}, 5*time.Second)
	ctx := context.Background()

	first := buildWorkbook(t, [][]any{
		{"ID", "Nombre", "Teléfono"},
		{"C-1001", "Maria Flores", "555-0101"},
		{"C-1002", "Jose Rivera", ""},
	})
	summary, err := svc.ImportCustomers(ctx, first)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if summary.Added != 2 || summary.Updated != 0 {
		t.Fatalf("expected 2 added / 0 updated, got %+v", summary)
	}

	second := buildWorkbook(t, [][]any{
		{"ID", "Nombre", "Teléfono"},
		{"C-1001", "Maria Flores", "555-0202"},
	})
	summary, err = svc.ImportCustomers(ctx, second)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if summary.Added != 0 || summary.Updated != 1 {
		t.Fatalf("expected 0 added / 1 updated, got %+v", summary)
	}

	customers, err := svc.SearchCustomers(ctx, "Maria", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(customers) != 1 {
		t.Fatalf("expected 1 match, got %d", len(customers))
	}
	if customers[0].Phone != "555-0202" {
		t.Fatalf("expected updated phone, got %q", customers[0].Phone)
	}
}

func TestImportCustomersCountsBadRows(t *testing.T) {
	repo := memory.New()
	svc := New(repo, cache.NoopStatsCache{}, 5*time.Second)

	buf := buildWorkbook(t, [][]any{
		{"ID", "Nombre"},
		{"C-1001", "Maria Flores"},
		{"", "Sin ID"},
	})
	summary, err := svc.ImportCustomers(context.Background(), buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.Added != 1 {
		t.Fatalf("expected 1 added, got %d", summary.Added)
	}
	if summary.ErrorCount != 1 || len(summary.Errors) != 1 {
		t.Fatalf("expected the bad row to be counted, got %+v", summary)
	}
}

func TestBuildOrderGroupsDropsSummaryRow(t *testing.T) {
	rows := []excel.Row{
		{"numero": "10", "ticket": "T-1", "id": "C-9", "nombre": "Ana", "fecha": "01-Feb-24", "total": "300.00"},
		{"numero": "10", "proceso": "LAVADO", "descripcio": "2 x fundas", "cantidad": "3", "fecha": "01-Feb-24", "precio": "100.00"},
		{"numero": "10", "proceso": "TINTORERIA", "descripcio": "abrigo", "cantidad": "1", "fecha": "01-Feb-24", "precio": "200.00"},
		{"numero": "10", "total": "300.00"},
	}

	groups, skipped := buildOrderGroups(rows)
	if skipped != 0 {
		t.Fatalf("expected no skipped rows, got %d", skipped)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}

	group := groups[0]
	if group.Order.Ticket != "T-1" || group.Order.TotalCents != 30000 {
		t.Fatalf("unexpected order header: %+v", group.Order)
	}
	if group.Customer.ID != "C-9" || group.Customer.Name != "Ana" {
		t.Fatalf("unexpected customer: %+v", group.Customer)
	}
	if len(group.Details) != 2 {
		t.Fatalf("expected 2 details after dropping the summary row, got %d", len(group.Details))
	}
	if group.Details[0].Pieces != 6 {
		t.Fatalf("expected 2x3=6 pieces, got %d", group.Details[0].Pieces)
	}
	if group.Details[0].Date != "2024-02-01" {
		t.Fatalf("expected converted detail date, got %q", group.Details[0].Date)
	}
}

func TestBuildOrderGroupsSkipsRowsWithoutNumber(t *testing.T) {
	rows := []excel.Row{
		{"ticket": "T-1", "proceso": "LAVADO"},
		{"numero": "11", "ticket": "T-2", "id": "C-1", "nombre": "Luz", "proceso": "LAVADO", "descripcio": "vestido", "cantidad": "1"},
	}

	groups, skipped := buildOrderGroups(rows)
	if skipped != 1 {
		t.Fatalf("expected 1 skipped row, got %d", skipped)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Details) != 0 {
		t.Fatalf("expected header-only order to have no details, got %d", len(groups[0].Details))
	}
}

func TestParseCents(t *testing.T) {
	cases := map[string]int64{
		"450.00":    45000,
		"$1,234.50": 123450,
		"0":         0,
		"":          0,
		"abc":       0,
	}
	for in, want := range cases {
		if got := parseCents(in); got != want {
			t.Fatalf("parseCents(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	cases := map[string]int{
		"2":    2,
		"2.0":  2,
		"2.6":  3,
		"":     0,
		"dos":  0,
		" 4  ": 4,
	}
	for in, want := range cases {
		if got := parseQuantity(in); got != want {
			t.Fatalf("parseQuantity(%q) = %d, want %d", in, got, want)
		}
	}
}
