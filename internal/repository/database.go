package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portsim/types"
)

// Global error declarations.
var (
	ErrIntervalNotSupported = errors.New("interval not supported")
	ErrAssetNotFound        = errors.New("not found in datasource")
	ErrNoPrices             = errors.New("no prices found in datasource")
)

type assetQueries interface {
	AssetByTicker(ctx context.Context, ticker string) (types.Asset, error)
}

type priceQueries interface {
	BucketedCloses(ctx context.Context, assetId int, bucket string, start, end time.Time) ([]types.PricePoint, error)
}

// Database holds the database connection and query layers.
type Database struct {
	assets assetQueries
	prices priceQueries
	conn   *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(dbURL string) (Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return Database{}, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return Database{}, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(context.Background()); err != nil {
		return Database{}, err
	}

	queries := newPgxQueries(conn)
	return Database{
		assets: queries,
		prices: queries,
		conn:   conn,
	}, nil
}

func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}

type pgxQueries struct {
	pool *pgxpool.Pool
}

func newPgxQueries(pool *pgxpool.Pool) *pgxQueries {
	return &pgxQueries{pool: pool}
}

func (q *pgxQueries) AssetByTicker(ctx context.Context, ticker string) (types.Asset, error) {
	const query = `
		SELECT id, ticker, name, type, created_at, modified_at
		FROM assets
		WHERE ticker = $1`

	var a types.Asset
	row := q.pool.QueryRow(ctx, query, ticker)
	if err := row.Scan(&a.Id, &a.Ticker, &a.Name, &a.Type, &a.CreatedAt, &a.ModifiedAt); err != nil {
		return types.Asset{}, err
	}
	return a, nil
}

func (q *pgxQueries) BucketedCloses(ctx context.Context, assetId int, bucket string, start, end time.Time) ([]types.PricePoint, error) {
	const query = `
		SELECT time_bucket($1::interval, time) AS bucket, last(close, time) AS close
		FROM candles
		WHERE asset_id = $2 AND time >= $3 AND time < $4
		GROUP BY bucket
		ORDER BY bucket`

	rows, err := q.pool.Query(ctx, query, bucket, assetId, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []types.PricePoint
	for rows.Next() {
		var p types.PricePoint
		if err := rows.Scan(&p.Timestamp, &p.Close); err != nil {
			return nil, err
		}
		p.AssetId = assetId
		points = append(points, p)
	}
	return points, rows.Err()
}
