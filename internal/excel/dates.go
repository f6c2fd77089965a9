package excel

import (
	"fmt"
	"strconv"
	"strings"
)

// monthNumbers maps English and Spanish three-letter month abbreviations to
// their month number. The source spreadsheets mix both.
var monthNumbers = map[string]int{
	"jan": 1, "ene": 1,
	"feb": 2,
	"mar": 3,
	"apr": 4, "abr": 4,
	"may": 5,
	"jun": 6,
	"jul": 7,
	"aug": 8, "ago": 8,
	"sep": 9, "set": 9,
	"oct": 10,
	"nov": 11,
	"dec": 12, "dic": 12,
}

// ConvertDate turns a "DD-MMM-YY" spreadsheet date into ISO "YYYY-MM-DD".
// Two-digit years are assumed to be in the 21st century. Anything that does
// not parse is returned unchanged so the caller can decide what to do with it.
func ConvertDate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parts := strings.Split(trimmed, "-")
	if len(parts) != 3 {
		return raw
	}

	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || day < 1 || day > 31 {
		return raw
	}

	month, ok := monthNumbers[strings.ToLower(strings.TrimSpace(parts[1]))]
	if !ok {
		return raw
	}

	yearPart := strings.TrimSpace(parts[2])
	year, err := strconv.Atoi(yearPart)
	if err != nil || year < 0 {
		return raw
	}
	if len(yearPart) <= 2 {
		year += 2000
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// IsISODate reports whether ConvertDate managed to normalize the value.
func IsISODate(value string) bool {
	if len(value) != 10 || value[4] != '-' || value[7] != '-' {
		return false
	}
	for i, r := range value {
		if i == 4 || i == 7 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
