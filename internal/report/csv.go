package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"portsim/internal/simulator"
)

// WriteSummaryCSVFile writes the per-step ledger series to a CSV file at the
// given path.
func WriteSummaryCSVFile(path string, p *simulator.Portfolio) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer f.Close()

	return WriteSummaryCSV(f, p)
}

// WriteSummaryCSV writes the per-step ledger series to any io.Writer as CSV.
// You can pass os.Stdout for debugging, or a file.
func WriteSummaryCSV(w io.Writer, p *simulator.Portfolio) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"date", "nav", "cash", "profit", "costs", "drawdown"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	nav := p.NAV()
	cash := p.Cash()
	profit := p.Profit()
	costs := p.Costs()
	drawdown := p.Drawdown()

	for i, t := range p.Times() {
		record := []string{
			t.Format(time.RFC3339),
			nav.ValueAt(i).String(),
			cash.ValueAt(i).String(),
			profit.ValueAt(i).String(),
			costs.ValueAt(i).String(),
			drawdown.ValueAt(i).String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteFrameCSVFile writes a per-asset table to a CSV file at the given path.
func WriteFrameCSVFile(path string, f *simulator.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}
	defer file.Close()

	return WriteFrameCSV(file, f)
}

// WriteFrameCSV writes a per-asset table as CSV, one column per asset.
// Cells with no data are left empty.
func WriteFrameCSV(w io.Writer, f *simulator.Frame) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	assets := f.Assets()
	header := make([]string, 0, len(assets)+1)
	header = append(header, "date")
	header = append(header, assets...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < f.Len(); i++ {
		record := make([]string, 0, len(assets)+1)
		record = append(record, f.TimeAt(i).Format(time.RFC3339))
		for _, a := range assets {
			if v, ok := f.At(i, a); ok {
				record = append(record, v.String())
			} else {
				record = append(record, "")
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
