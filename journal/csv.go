package journal

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{"id", "market", "action", "quantity", "price", "trade_date", "return_rate", "notes"}

// WriteCSV writes trades with a header row.
func WriteCSV(w io.Writer, trades []Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range trades {
		ret := ""
		if t.ReturnRate != nil {
			ret = trimFloat(*t.ReturnRate)
		}
		err := cw.Write([]string{
			t.ID,
			t.Market,
			string(t.Action),
			trimFloat(t.Quantity),
			trimFloat(t.Price),
			t.TradeDate.UTC().Format(time.RFC3339),
			ret,
			t.Notes,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func trimFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
