package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"portsim/internal/simulator"
	"portsim/types"
)

var bucketToInterval = map[types.Interval]string{
	types.Day:   "1 day",
	types.Week:  "1 week",
	types.Month: "1 month",
}

// GetCloses returns the bucketed closes of one asset over [start, end).
func (db *Database) GetCloses(assetId int, ticker string, interval types.Interval, start, end time.Time, ctx context.Context) ([]types.PricePoint, error) {
	bucket, ok := bucketToInterval[interval]
	if !ok {
		return nil, ErrIntervalNotSupported
	}
	points, err := db.prices.BucketedCloses(ctx, assetId, bucket, start, end)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoPrices
		}
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrNoPrices
	}
	for i := range points {
		points[i].Ticker = ticker
		points[i].Interval = interval
	}
	return points, nil
}

// GetPriceFrame loads the closes of several tickers and aligns them on the
// union of their timestamps. Timestamps an asset does not cover stay
// no-data, so listing and delisting gaps survive the assembly; the
// simulator rejects interior gaps when the frame is handed to it.
func (db *Database) GetPriceFrame(tickers []string, interval types.Interval, start, end time.Time, ctx context.Context) (*simulator.Frame, error) {
	series := make(map[string][]types.PricePoint, len(tickers))
	stamps := make(map[time.Time]struct{})

	for _, ticker := range tickers {
		asset, err := db.GetAssetByTicker(ticker, ctx)
		if err != nil {
			return nil, err
		}
		points, err := db.GetCloses(asset.Id, ticker, interval, start, end, ctx)
		if err != nil {
			return nil, err
		}
		series[ticker] = points
		for _, p := range points {
			stamps[p.Timestamp.UTC()] = struct{}{}
		}
	}

	times := make([]time.Time, 0, len(stamps))
	for t := range stamps {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	frame, err := simulator.NewFrame(times, tickers)
	if err != nil {
		return nil, err
	}
	for ticker, points := range series {
		for _, p := range points {
			i, ok := frame.IndexOf(p.Timestamp.UTC())
			if !ok {
				continue
			}
			if err := frame.Set(i, ticker, p.Close); err != nil {
				return nil, err
			}
		}
	}
	return frame, nil
}
