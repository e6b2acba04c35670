package repository

import (
	"context"

	"github.com/potatotify/backtesting-engine/internal/engine"
	"github.com/potatotify/backtesting-engine/types"
)

var supportedIntervals = map[types.Interval]bool{
	types.OneMinute:      true,
	types.FiveMinutes:    true,
	types.FifteenMinutes: true,
	types.ThirtyMinutes:  true,
	types.Hour:           true,
	types.FourHours:      true,
	types.Day:            true,
	types.Week:           true,
}

// LoadBars implements engine.BarStore: it resolves the ticker to an asset
// and returns its bars in feed order, bounded either by the request's time
// window or by its bar count.
func (db *Database) LoadBars(ctx context.Context, req engine.FeedRequest) ([]types.Bar, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !supportedIntervals[req.Interval] {
		return nil, ErrIntervalNotSupported
	}

	asset, err := db.GetAssetByTicker(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	if req.Limit > 0 {
		return db.lastBars(ctx, asset.Id, req)
	}
	return db.barsInRange(ctx, asset.Id, req)
}

func (db *Database) barsInRange(ctx context.Context, assetID int, req engine.FeedRequest) ([]types.Bar, error) {
	const query = `
		SELECT timestamp, open, high, low, close, volume
		FROM candles
		WHERE asset_id = $1 AND interval = $2 AND timestamp >= $3 AND timestamp < $4
		ORDER BY timestamp`

	rows, err := db.pool.Query(ctx, query, assetID, string(req.Interval), req.Start, req.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBars(rows, req)
}

// lastBars returns the most recent Limit bars, oldest first.
func (db *Database) lastBars(ctx context.Context, assetID int, req engine.FeedRequest) ([]types.Bar, error) {
	const query = `
		SELECT timestamp, open, high, low, close, volume
		FROM (
			SELECT timestamp, open, high, low, close, volume
			FROM candles
			WHERE asset_id = $1 AND interval = $2
			ORDER BY timestamp DESC
			LIMIT $3
		) recent
		ORDER BY timestamp`

	rows, err := db.pool.Query(ctx, query, assetID, string(req.Interval), req.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBars(rows, req)
}

type barRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanBars(rows barRows, req engine.FeedRequest) ([]types.Bar, error) {
	var bars []types.Bar
	for rows.Next() {
		bar := types.Bar{Symbol: req.Symbol, Interval: req.Interval}
		err := rows.Scan(&bar.Timestamp, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	return bars, nil
}
