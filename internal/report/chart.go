package report

import (
	"fmt"
	"os"

	charts "github.com/vicanso/go-charts/v2"

	"portsim/internal/simulator"
	"portsim/types"
)

// RenderChart renders one of the ledger's series as a PNG line chart.
func RenderChart(p *simulator.Portfolio, kind types.ChartKind) ([]byte, error) {
	if p == nil || p.Len() == 0 {
		return nil, fmt.Errorf("render chart: empty portfolio")
	}

	var series simulator.Series
	var title string
	switch kind {
	case types.ChartNAV:
		series = p.NAV()
		title = "Net Asset Value"
	case types.ChartDrawdown:
		series = p.Drawdown()
		title = "Drawdown"
	default:
		return nil, fmt.Errorf("render chart: unknown chart kind %q", kind)
	}

	xLabels := make([]string, series.Len())
	values := make([]float64, series.Len())
	for i := 0; i < series.Len(); i++ {
		if series.Len() <= 60 {
			xLabels[i] = series.TimeAt(i).Format("Jan 02")
		} else {
			xLabels[i] = series.TimeAt(i).Format("Jan '06")
		}
		values[i] = series.ValueAt(i).InexactFloat64()
	}

	// Pad the y-axis so a flat series does not hug the border.
	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = 1
	}
	yMin := minVal - padding
	yMax := maxVal + padding

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	chart, err := charts.LineRender(
		[][]float64{values},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	buf, err := chart.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf, nil
}

// WriteChartFile renders a chart and writes it as a PNG at the given path.
func WriteChartFile(path string, p *simulator.Portfolio, kind types.ChartKind) error {
	buf, err := RenderChart(p, kind)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write chart file: %w", err)
	}
	return nil
}
