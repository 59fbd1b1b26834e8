package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jungho-shin/data-migration-study/internal/datasets"
	"github.com/jungho-shin/data-migration-study/internal/db/models"
)

const testCSVBody = "a,b\n1,2\n"

// newTestFetcher points a fetcher at the fake provider with retry waits
// short enough for tests.
func newTestFetcher(srv *httptest.Server) *Fetcher {
	return NewFetcher(FetcherOptions{
		BaseURL:        srv.URL,
		Attempts:       3,
		InitialBackoff: time.Millisecond,
	})
}

func requireNoPartFiles(t *testing.T, dir string) {
	t.Helper()
	leftovers, err := filepath.Glob(filepath.Join(dir, "*"+partSuffix))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "no in-progress file may remain visible")
}

func TestFetchSkipsExistingFile(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(testCSVBody))
	}))
	defer srv.Close()

	dir := t.TempDir()
	period := datasets.Period{Year: 2021, Month: 2}
	canonical := filepath.Join(dir, "yellow_tripdata_2021-02.csv")
	require.NoError(t, os.WriteFile(canonical, []byte("already acquired content, 42 bytes long..\n"), 0o644))

	f := newTestFetcher(srv)
	for i := 0; i < 2; i++ {
		result, err := f.Fetch(context.Background(), datasets.KindYellow, period, dir)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeSkippedExisting, result.Outcome)
		assert.Equal(t, canonical, result.LocalPath)
		assert.Equal(t, int64(42), result.Size)
	}
	assert.Zero(t, hits.Load(), "skipped periods must not contact the provider")
}

func TestFetchDownloadsCSVEra(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/green_tripdata_2021-03.csv", r.URL.Path)
		_, _ = w.Write([]byte(testCSVBody))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := newTestFetcher(srv)
	result, err := f.Fetch(context.Background(), datasets.KindGreen, datasets.Period{Year: 2021, Month: 3}, dir)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeDownloaded, result.Outcome)
	assert.Equal(t, datasets.FormatCSV, result.SourceFormat)
	assert.False(t, result.Converted)
	assert.Equal(t, int64(len(testCSVBody)), result.Size)

	content, err := os.ReadFile(filepath.Join(dir, "green_tripdata_2021-03.csv"))
	require.NoError(t, err)
	assert.Equal(t, testCSVBody, string(content))
	requireNoPartFiles(t, dir)
}

func TestFetchDownloadsParquetEraUnderRemoteName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/yellow_tripdata_2022-03.parquet", r.URL.Path)
		_, _ = w.Write([]byte("PAR1 opaque bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := newTestFetcher(srv)
	result, err := f.Fetch(context.Background(), datasets.KindYellow, datasets.Period{Year: 2022, Month: 3}, dir)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeDownloaded, result.Outcome)
	assert.Equal(t, datasets.FormatParquet, result.SourceFormat)
	assert.Equal(t, filepath.Join(dir, "yellow_tripdata_2022-03.parquet"), result.LocalPath)
	assert.NoFileExists(t, filepath.Join(dir, "yellow_tripdata_2022-03.csv"))
}

func TestFetchNotFoundIsTerminal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := newTestFetcher(srv)
	result, err := f.Fetch(context.Background(), datasets.KindFHV, datasets.Period{Year: 2021, Month: 1}, dir)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeNotFound, result.Outcome)
	assert.Empty(t, result.LocalPath)
	assert.Equal(t, int32(1), hits.Load(), "a missing remote file is not retried")
	requireNoPartFiles(t, dir)
}

func TestFetchRetriesUntilExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := newTestFetcher(srv)
	result, err := f.Fetch(context.Background(), datasets.KindYellow, datasets.Period{Year: 2021, Month: 1}, dir)
	require.NoError(t, err, "exhausted retries stay a per-period failure")

	assert.Equal(t, models.OutcomeFailed, result.Outcome)
	assert.Contains(t, result.Error, "after 3 attempts")
	assert.Equal(t, int32(3), hits.Load())
	requireNoPartFiles(t, dir)
}

func TestFetchRecoversAfterTransientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(testCSVBody))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := newTestFetcher(srv)
	result, err := f.Fetch(context.Background(), datasets.KindYellow, datasets.Period{Year: 2021, Month: 1}, dir)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeDownloaded, result.Outcome)
	assert.Equal(t, int32(3), hits.Load())
	assert.FileExists(t, filepath.Join(dir, "yellow_tripdata_2021-01.csv"))
}

func TestFetchBackoffIncreases(t *testing.T) {
	var mu sync.Mutex
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{
		BaseURL:        srv.URL,
		Attempts:       3,
		InitialBackoff: 30 * time.Millisecond,
	})
	_, err := f.Fetch(context.Background(), datasets.KindYellow, datasets.Period{Year: 2021, Month: 1}, t.TempDir())
	require.NoError(t, err)

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 30*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 60*time.Millisecond)
}

func TestFetchCancelledContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newTestFetcher(srv)
	result, err := f.Fetch(ctx, datasets.KindYellow, datasets.Period{Year: 2021, Month: 1}, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeFailed, result.Outcome)
	assert.LessOrEqual(t, hits.Load(), int32(1), "a dead context must not be retried against")
}
