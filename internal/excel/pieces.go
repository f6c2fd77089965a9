package excel

import (
	"regexp"
	"strconv"
)

// piecesPattern captures a leading per-unit multiplier in a free-text process
// description: "120 X camisas", "3 de seda". The letter after the digits is
// the start of "x" or "de" in either case.
var piecesPattern = regexp.MustCompile(`(\d+)\s*[xXdDeE]`)

// Pieces derives the garment unit count for a detail line. When the
// description carries a multiplier ("<N> x ..." or "<N> de ..."), each
// quantity unit counts as N pieces; otherwise the quantity stands alone.
func Pieces(description string, quantity int) int {
	match := piecesPattern.FindStringSubmatch(description)
	if match == nil {
		return quantity
	}
	multiplier, err := strconv.Atoi(match[1])
	if err != nil {
		return quantity
	}
	return multiplier * quantity
}
