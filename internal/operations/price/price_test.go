package price

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsharma2491/ALGO/internal/models"
)

func TestReadCSV(t *testing.T) {
	in := `Date,Open,High,Low,Close,Volume
2024-01-02 09:17:00,101,102,100,101.5,10
2024-01-02 09:15:00,100,101,99,100.5,12
2024-01-02 09:16:00,100.5,101.5,100,101,8
2024-01-02 09:16:00,1,1,1,1,1
`
	bars, err := ReadCSV(strings.NewReader(in), time.Time{}, time.Time{})
	require.NoError(t, err)

	require.Len(t, bars, 3)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, 100.5, bars[0].Close)
	// the first of two rows with the same timestamp wins
	assert.Equal(t, 101.0, bars[1].Close)
	assert.Equal(t, 10.0, bars[2].Volume)
}

func TestReadCSV_RangeExcludesAllRows(t *testing.T) {
	in := `Date,Open,High,Low,Close,Volume
2024-01-02 09:15:00,100,101,99,100.5,12
`
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bars, err := ReadCSV(strings.NewReader(in), from, time.Time{})
	assert.Empty(t, bars)
	assert.True(t, models.IsEmptySeries(err))
}

func TestReadCSV_HeaderAliases(t *testing.T) {
	tests := map[string]string{
		"timestamp": "timestamp,open,high,low,close,volume\n1704186900,100,101,99,100,1\n",
		"time":      "TIME, OPEN, HIGH, LOW, CLOSE, VOLUME\n2024-01-02T09:15:00Z,100,101,99,100,1\n",
		"datetime":  "datetime,open,high,low,close,volume\n2024-01-02 09:15,100,101,99,100,1\n",
		"bom":       "\ufeffdate,open,high,low,close,volume\n2024-01-02,100,101,99,100,1\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			bars, err := ReadCSV(strings.NewReader(in), time.Time{}, time.Time{})
			require.NoError(t, err)
			require.Len(t, bars, 1)
			assert.Equal(t, 2024, bars[0].Time.Year())
			assert.Equal(t, 100.0, bars[0].Close)
		})
	}
}

func TestReadCSV_DateFilter(t *testing.T) {
	in := "date,open,high,low,close,volume\n" +
		"2024-01-01,1,1,1,1,1\n" +
		"2024-01-02,2,2,2,2,1\n" +
		"2024-01-03,3,3,3,3,1\n"

	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars, err := ReadCSV(strings.NewReader(in), from, from.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 2.0, bars[0].Close)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := map[string]string{
		"bad timestamp":  "date,open,high,low,close,volume\nyesterday,1,1,1,1,1\n",
		"high below low": "date,open,high,low,close,volume\n2024-01-02,1,1,2,1,1\n",
		"empty":          "date,open,high,low,close,volume\n",
		"bad number":     "date,open,high,low,close,volume\n2024-01-02,x,1,1,1,1\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(in), time.Time{}, time.Time{})
			var derr *models.DataError
			require.True(t, errors.As(err, &derr), "got %v", err)
		})
	}
}

func TestLoadCSV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,open,high,low,close,volume\n2024-01-02,1,2,1,2,1\n"), 0o600))

	bars, err := LoadCSV(path, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, bars, 1)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), time.Time{}, time.Time{})
	assert.Error(t, err)
}

type fakeSource struct {
	klines []*futures.Kline
	err    error
	calls  [][2]time.Time
}

func (f *fakeSource) GetHistoricalKlines(_ context.Context, _, _ string, start, end time.Time) ([]*futures.Kline, error) {
	f.calls = append(f.calls, [2]time.Time{start, end})
	return f.klines, f.err
}

func kline(open time.Time, close float64) *futures.Kline {
	c := strconv.FormatFloat(close, 'f', -1, 64)
	return &futures.Kline{
		OpenTime:  open.UnixMilli(),
		CloseTime: open.Add(time.Minute).UnixMilli() - 1,
		Open:      c, High: c, Low: c, Close: c, Volume: "1",
	}
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func TestFetchBars(t *testing.T) {
	src := &fakeSource{klines: []*futures.Kline{
		kline(t0.Add(time.Minute), 101),
		kline(t0, 100),
		{OpenTime: t0.Add(2 * time.Minute).UnixMilli(), Open: "bad"},
	}}

	bars, err := NewPriceFetcher(src, quiet()).FetchBars(context.Background(), "BTCUSDT", "1m", t0, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 100.0, bars[0].Close)
	assert.Equal(t, 101.0, bars[1].Close)
}

func TestFetchPrices_Rejects(t *testing.T) {
	f := NewPriceFetcher(&fakeSource{}, quiet())

	_, err := f.FetchPrices(context.Background(), "BTCUSDT", "7m", t0, t0.Add(time.Hour))
	assert.Error(t, err)
	_, err = f.FetchPrices(context.Background(), "BTCUSDT", "1m", t0, t0)
	assert.Error(t, err)

	f = NewPriceFetcher(&fakeSource{err: errors.New("down")}, quiet())
	_, err = f.FetchPrices(context.Background(), "BTCUSDT", "1m", t0, t0.Add(time.Hour))
	assert.EqualError(t, err, "down")
}

type memStore struct {
	latest *models.Price
	saved  []models.Price
}

func (m *memStore) SaveBatch(_ context.Context, prices []models.Price) (int64, error) {
	m.saved = append(m.saved, prices...)
	return int64(len(prices)), nil
}

func (m *memStore) GetLatestPriceByTimeFrame(context.Context, string, string) (*models.Price, error) {
	return m.latest, nil
}

func TestRecord_ResumesAfterLatest(t *testing.T) {
	src := &fakeSource{klines: []*futures.Kline{kline(t0.Add(10*time.Minute), 100)}}
	store := &memStore{latest: &models.Price{OpenTime: t0.Add(9 * time.Minute)}}
	rec := NewPriceRecorder(NewPriceFetcher(src, quiet()), store, quiet())

	n, err := rec.Record(context.Background(), "BTCUSDT", "1m", t0, t0.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(1), n)
	require.Len(t, src.calls, 1)
	assert.Equal(t, t0.Add(10*time.Minute), src.calls[0][0])
	assert.Equal(t, "BTCUSDT", store.saved[0].Symbol)
}

func TestRecord_UpToDate(t *testing.T) {
	src := &fakeSource{}
	store := &memStore{latest: &models.Price{OpenTime: t0.Add(59 * time.Minute)}}
	rec := NewPriceRecorder(NewPriceFetcher(src, quiet()), store, quiet())

	n, err := rec.Record(context.Background(), "BTCUSDT", "1m", t0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, src.calls)
}

func TestRecord_BackfillsBeforeLatest(t *testing.T) {
	src := &fakeSource{klines: []*futures.Kline{kline(t0, 100)}}
	store := &memStore{latest: &models.Price{OpenTime: t0.Add(2 * time.Hour)}}
	rec := NewPriceRecorder(NewPriceFetcher(src, quiet()), store, quiet())

	n, err := rec.Record(context.Background(), "BTCUSDT", "1m", t0, t0.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(1), n)
	require.Len(t, src.calls, 1)
	assert.Equal(t, t0, src.calls[0][0])
	assert.Equal(t, t0.Add(time.Hour), src.calls[0][1])
}

func TestStartRecording_StopsOnCancel(t *testing.T) {
	src := &fakeSource{klines: []*futures.Kline{kline(t0, 100)}}
	store := &memStore{}
	rec := NewPriceRecorder(NewPriceFetcher(src, quiet()), store, quiet())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.StartRecording(ctx, []string{"BTCUSDT", "ETHUSDT"}, "1m", time.Hour)

	// one pass runs before the cancelled context is noticed
	assert.Len(t, src.calls, 2)
}
