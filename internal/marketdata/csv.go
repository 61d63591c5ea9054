package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/schundi365/IndianTradingbot-sub002/internal/series"
)

// CSVProvider reads OHLCV series from CSV files on disk, one file per
// symbol and timeframe, named <SYMBOL>_<TIMEFRAME>.csv. Expected columns:
// time,open,high,low,close,volume with time as unix seconds or RFC 3339.
// A header row is skipped when present.
type CSVProvider struct {
	dir string
}

// NewCSVProvider creates a provider rooted at dir.
func NewCSVProvider(dir string) (*CSVProvider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("csv provider: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("csv provider: %s is not a directory", dir)
	}
	return &CSVProvider{dir: dir}, nil
}

// GetHistoricalSeries implements SeriesProvider. It returns the last
// barCount bars from the matching file.
func (p *CSVProvider) GetHistoricalSeries(ctx context.Context, symbol, timeframe string, barCount int) (*series.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if barCount <= 0 {
		return nil, fmt.Errorf("csv provider: bar count must be positive, got %d", barCount)
	}

	path := filepath.Join(p.dir, fmt.Sprintf("%s_%s.csv", symbol, timeframe))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", series.ErrTimeframeUnavailable, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 6

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv provider: reading %s: %w", path, err)
	}

	points := make([]series.PricePoint, 0, len(records))
	for i, rec := range records {
		if i == 0 && isHeader(rec) {
			continue
		}
		point, err := parsePoint(rec)
		if err != nil {
			return nil, fmt.Errorf("csv provider: %s row %d: %w", path, i+1, err)
		}
		points = append(points, point)
	}

	if len(points) > barCount {
		points = points[len(points)-barCount:]
	}
	return series.New(symbol, timeframe, points)
}

func isHeader(rec []string) bool {
	_, err := strconv.ParseFloat(rec[1], 64)
	return err != nil
}

func parsePoint(rec []string) (series.PricePoint, error) {
	var point series.PricePoint

	ts, err := parseTime(rec[0])
	if err != nil {
		return point, err
	}
	point.Time = ts

	fields := []*float64{&point.Open, &point.High, &point.Low, &point.Close, &point.Volume}
	for i, dst := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return point, fmt.Errorf("column %d: %w", i+2, err)
		}
		*dst = v
	}
	return point, nil
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
	}
	return ts.UTC(), nil
}
