package simulation

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

// WriteTurnsCSV writes one row per trader turn to path.
func WriteTurnsCSV(path string, turns []TurnRecord) error {
	return writeFile(path, func(w io.Writer) error { return EncodeTurnsCSV(w, turns) })
}

// WritePricesCSV writes the full price history to path, seed prices first.
func WritePricesCSV(path string, res *Result) error {
	return writeFile(path, func(w io.Writer) error { return EncodePricesCSV(w, res) })
}

func EncodeTurnsCSV(out io.Writer, turns []TurnRecord) error {
	w := csv.NewWriter(out)

	header := []string{
		"step",
		"trader_index",
		"trader_id",
		"disposition",
		"price",
		"response",
		"action",
		"side",
		"units",
		"outcome",
		"reason",
		"ambiguous",
		"assets_after",
		"cash_after",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range turns {
		row := []string{
			strconv.Itoa(r.Step),
			strconv.Itoa(r.TraderIndex),
			r.TraderID.String(),
			string(r.Disposition),
			fmtFloat(r.Price),
			r.Response,
			r.Action.String(),
			string(r.Action.Side()),
			strconv.Itoa(r.Units),
			string(r.Outcome),
			r.Reason,
			strconv.FormatBool(r.Ambiguous),
			strconv.Itoa(r.AssetsAfter),
			r.CashAfter.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// EncodePricesCSV writes seed prices with step 0, then one row per price update.
func EncodePricesCSV(out io.Writer, res *Result) error {
	w := csv.NewWriter(out)

	header := []string{
		"index",
		"step",
		"price",
		"previous",
		"buy_volume",
		"sell_volume",
		"delta",
		"noise",
		"clamped",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	idx := 0
	for _, p := range res.InitialPrices {
		row := []string{strconv.Itoa(idx), "0", fmtFloat(p), "", "", "", "", "", ""}
		if err := w.Write(row); err != nil {
			return err
		}
		idx++
	}
	for _, u := range res.Prices {
		row := []string{
			strconv.Itoa(idx),
			strconv.Itoa(u.Step),
			fmtFloat(u.Next),
			fmtFloat(u.Previous),
			strconv.Itoa(u.BuyVolume),
			strconv.Itoa(u.SellVolume),
			fmtFloat(u.Delta),
			fmtFloat(u.Noise),
			strconv.FormatBool(u.Clamped),
		}
		if err := w.Write(row); err != nil {
			return err
		}
		idx++
	}

	w.Flush()
	return w.Error()
}

func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
