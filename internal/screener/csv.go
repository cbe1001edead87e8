package screener

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"SellBreakout/internal/model"

	"github.com/shopspring/decimal"
)

// CSVFileName is the suggested download name for exported hits.
const CSVFileName = "breakouts.csv"

// WriteCSV writes hits as "symbol,close" rows with prices fixed to 2 decimals.
func WriteCSV(w io.Writer, hits []model.BreakoutHit) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"symbol", "close"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, h := range hits {
		if err := cw.Write([]string{h.Code, formatPrice(h.Close)}); err != nil {
			return fmt.Errorf("write csv row %s: %w", h.Code, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatPrice(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return strconv.FormatFloat(p, 'f', -1, 64)
	}
	return decimal.NewFromFloat(p).StringFixed(2)
}
