package repository

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"portsim/internal/simulator"
)

// LoadPriceFrameFile reads a price frame from a CSV file at the given path.
func LoadPriceFrameFile(path string) (*simulator.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prices file: %w", err)
	}
	defer f.Close()

	return LoadPriceFrame(f)
}

// LoadPriceFrame reads a price frame from any io.Reader as CSV. The first
// column is the timestamp (2006-01-02 or RFC3339), remaining columns are one
// asset each; empty or "NaN" cells mean no data.
func LoadPriceFrame(r io.Reader) (*simulator.Frame, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("header %v has no asset columns", header)
	}
	assets := header[1:]

	var times []time.Time
	var cells [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		t, err := parseStamp(record[0])
		if err != nil {
			return nil, err
		}
		times = append(times, t)
		cells = append(cells, record[1:])
	}

	frame, err := simulator.NewFrame(times, assets)
	if err != nil {
		return nil, err
	}
	for i, row := range cells {
		for j, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" || strings.EqualFold(cell, "nan") {
				continue
			}
			price, err := decimal.NewFromString(cell)
			if err != nil {
				return nil, fmt.Errorf("parse price %q for %s: %w", cell, assets[j], err)
			}
			if err := frame.Set(i, assets[j], price); err != nil {
				return nil, err
			}
		}
	}
	return frame, nil
}

func parseStamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
