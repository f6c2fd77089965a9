package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"lavanderia/backend/internal/domain"
	"lavanderia/backend/internal/excel"
)

// Column aliases seen across the shop's spreadsheets. Headers are normalized
// (lowercased, accents stripped) before lookup, so "Teléfono" and "Telefono"
// both land on "telefono".
var (
	colNumber   = []string{"numero", "number", "no"}
	colTicket   = []string{"ticket", "tiquet"}
	colID       = []string{"id", "codigo"}
	colName     = []string{"nombre", "name", "cliente"}
	colPhone    = []string{"telefono", "phone", "tel"}
	colProcess  = []string{"proceso", "process"}
	colDesc     = []string{"descripcio", "descripcion", "description"}
	colQuantity = []string{"cantidad", "cant", "quantity"}
	colDate     = []string{"fecha", "date"}
	colPrice    = []string{"precio", "price"}
	colTotal    = []string{"total", "importe"}
)

// ImportOrders parses an orders workbook, reconciles its rows into order
// groups and hands them to the repository in one transaction.
func (s *Service) ImportOrders(ctx context.Context, r io.Reader) (domain.OrderImportSummary, error) {
	rows, err := excel.ReadRows(r)
	if err != nil {
		return domain.OrderImportSummary{}, err
	}

	groups, skipped := buildOrderGroups(rows)
	summary, err := s.repo.ImportOrders(ctx, groups)
	if err != nil {
		return summary, err
	}
	summary.RowsSkipped += skipped

	// Dates that did not normalize are imported as-is; surface them so the
	// operator can fix the sheet.
	for _, group := range groups {
		for _, raw := range collectBadDates(group) {
			summary.ErrorCount++
			if len(summary.Errors) < importWarningCap {
				summary.Errors = append(summary.Errors, fmt.Sprintf("order %s: unparseable date %q imported verbatim", group.Order.Number, raw))
			}
		}
	}
	return summary, nil
}

const importWarningCap = 10

func collectBadDates(group domain.OrderGroup) []string {
	var bad []string
	if d := group.Order.Date; d != "" && !excel.IsISODate(d) {
		bad = append(bad, d)
	}
	for _, detail := range group.Details {
		if d := detail.Date; d != "" && !excel.IsISODate(d) {
			bad = append(bad, d)
		}
	}
	return bad
}

// buildOrderGroups groups spreadsheet rows by order number, preserving the
// order numbers' first appearance. The first row of a group carries the order
// header; the remaining rows are detail lines. A trailing row with neither
// process nor description is the sheet's per-order summary and is dropped.
func buildOrderGroups(rows []excel.Row) ([]domain.OrderGroup, int) {
	grouped := map[string][]excel.Row{}
	numbers := make([]string, 0, 32)
	skipped := 0

	for _, row := range rows {
		number := row.Get(colNumber...)
		if number == "" {
			skipped++
			continue
		}
		if _, seen := grouped[number]; !seen {
			numbers = append(numbers, number)
		}
		grouped[number] = append(grouped[number], row)
	}

	groups := make([]domain.OrderGroup, 0, len(numbers))
	for _, number := range numbers {
		groupRows := grouped[number]
		if len(groupRows) == 0 {
			skipped++
			continue
		}

		header := groupRows[0]
		detailRows := groupRows[1:]
		if n := len(detailRows); n > 0 {
			last := detailRows[n-1]
			if last.Get(colProcess...) == "" && last.Get(colDesc...) == "" {
				detailRows = detailRows[:n-1]
			}
		}

		group := domain.OrderGroup{
			Order: domain.Order{
				Number:     number,
				Ticket:     header.Get(colTicket...),
				CustomerID: header.Get(colID...),
				TotalCents: parseCents(header.Get(colTotal...)),
				Date:       excel.ConvertDate(header.Get(colDate...)),
			},
			Customer: domain.Customer{
				ID:    header.Get(colID...),
				Name:  header.Get(colName...),
				Phone: header.Get(colPhone...),
			},
		}

		for _, row := range detailRows {
			quantity := parseQuantity(row.Get(colQuantity...))
			description := row.Get(colDesc...)
			group.Details = append(group.Details, domain.OrderDetail{
				Number:      number,
				Process:     row.Get(colProcess...),
				Description: description,
				Pieces:      excel.Pieces(description, quantity),
				Quantity:    quantity,
				Date:        excel.ConvertDate(row.Get(colDate...)),
				PriceCents:  parseCents(row.Get(colPrice...)),
			})
		}

		groups = append(groups, group)
	}

	return groups, skipped
}

// ImportCustomers parses a Name/Phone/ID workbook and upserts every row in
// one transaction.
func (s *Service) ImportCustomers(ctx context.Context, r io.Reader) (domain.CustomerImportSummary, error) {
	rows, err := excel.ReadRows(r)
	if err != nil {
		return domain.CustomerImportSummary{}, err
	}

	customers := make([]domain.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, domain.Customer{
			ID:    strings.TrimSpace(row.Get(colID...)),
			Name:  strings.TrimSpace(row.Get(colName...)),
			Phone: strings.TrimSpace(row.Get(colPhone...)),
		})
	}

	return s.repo.ImportCustomers(ctx, customers)
}

// parseQuantity tolerates the sheets' decimal quantities ("2.0"). Anything
// that is not a number counts as zero pieces rather than failing the row.
func parseQuantity(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(math.Round(f))
	}
	return 0
}

// parseCents converts a "450.50"-style money cell to integer cents.
func parseCents(raw string) int64 {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f * 100))
}
