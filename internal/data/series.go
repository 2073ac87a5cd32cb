package data

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadPriceSeries reads a price list from a JSON array (.json) or a one-column CSV (any other
// extension). A CSV header row is skipped when its first cell is not a number.
func LoadPriceSeries(path string) ([]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var prices []float64
	if strings.EqualFold(filepath.Ext(path), ".json") {
		prices, err = parseJSONSeries(raw)
	} else {
		prices, err = parseCSVSeries(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := checkSeries(prices); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return prices, nil
}

func parseJSONSeries(raw []byte) ([]float64, error) {
	var prices []float64
	if err := json.Unmarshal(raw, &prices); err != nil {
		return nil, fmt.Errorf("expected a JSON array of numbers: %w", err)
	}
	return prices, nil
}

func parseCSVSeries(raw []byte) ([]float64, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var prices []float64
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		prices = append(prices, v)
	}
	return prices, nil
}

func checkSeries(prices []float64) error {
	if len(prices) == 0 {
		return errors.New("no prices found")
	}
	for i, p := range prices {
		if !(p > 0) || math.IsInf(p, 0) {
			return fmt.Errorf("price %d must be a finite value > 0, got %v", i, p)
		}
	}
	return nil
}
