package collector

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jungho-shin/data-migration-study/internal/datasets"
	"github.com/jungho-shin/data-migration-study/internal/db/models"
)

// tripFixture mirrors the shape of a trip record file: a handful of
// numeric and text columns. Field names are kept in alphabetical order so
// the expected header does not depend on how the schema orders fields.
type tripFixture struct {
	Distance    float64 `parquet:"distance"`
	Passengers  int64   `parquet:"passengers"`
	PickupDate  string  `parquet:"pickup_date"`
	TotalAmount float64 `parquet:"total_amount"`
	VendorID    int64   `parquet:"vendor_id"`
}

func makeTripFixtures(n int) []tripFixture {
	rows := make([]tripFixture, n)
	for i := range rows {
		rows[i] = tripFixture{
			Distance:    float64(i) + 0.5,
			Passengers:  int64(i % 6),
			PickupDate:  fmt.Sprintf("2022-01-%02d", i%28+1),
			TotalAmount: float64(i%100) + 0.25,
			VendorID:    int64(i%5) + 1,
		}
	}
	return rows
}

func writeParquet[T any](t *testing.T, path string, rows []T) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := parquet.NewGenericWriter[T](f)
	n, err := w.Write(rows)
	require.NoError(t, err)
	require.Equal(t, len(rows), n)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestNormalizeCSVPassThrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "yellow_tripdata_2019-06.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSVBody), 0o644))

	gotPath, size, err := Normalize(path, datasets.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, path, gotPath)
	assert.Equal(t, int64(len(testCSVBody)), size)
}

func TestNormalizeConvertsParquet(t *testing.T) {
	dir := t.TempDir()
	parquetPath := filepath.Join(dir, "yellow_tripdata_2022-01.parquet")
	rows := makeTripFixtures(1000)
	writeParquet(t, parquetPath, rows)

	csvPath, size, err := Normalize(parquetPath, datasets.FormatParquet)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "yellow_tripdata_2022-01.csv"), csvPath)

	info, err := os.Stat(csvPath)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), size)

	records := readCSV(t, csvPath)
	require.Len(t, records, 1001, "one header row plus every data row")
	assert.Equal(t, []string{"distance", "passengers", "pickup_date", "total_amount", "vendor_id"}, records[0])

	for _, record := range records {
		require.Len(t, record, 5)
	}
	assert.Equal(t, []string{"0.5", "0", "2022-01-01", "0.25", "1"}, records[1])
	assert.Equal(t, []string{"999.5", "3", "2022-01-20", "99.25", "5"}, records[1000])

	requireNoPartFiles(t, dir)
}

func TestNormalizeNullsBecomeEmptyCells(t *testing.T) {
	type tipFixture struct {
		Amount float64  `parquet:"amount"`
		Tip    *float64 `parquet:"tip,optional"`
	}

	dir := t.TempDir()
	parquetPath := filepath.Join(dir, "green_tripdata_2023-02.parquet")
	tip := 2.5
	writeParquet(t, parquetPath, []tipFixture{
		{Amount: 10.5, Tip: nil},
		{Amount: 20.5, Tip: &tip},
	})

	csvPath, _, err := Normalize(parquetPath, datasets.FormatParquet)
	require.NoError(t, err)

	records := readCSV(t, csvPath)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"amount", "tip"}, records[0])
	assert.Equal(t, []string{"10.5", ""}, records[1])
	assert.Equal(t, []string{"20.5", "2.5"}, records[2])
}

func TestNormalizeRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	parquetPath := filepath.Join(dir, "yellow_tripdata_2022-05.parquet")
	require.NoError(t, os.WriteFile(parquetPath, []byte("these are not the bytes you are looking for"), 0o644))

	_, _, err := Normalize(parquetPath, datasets.FormatParquet)
	require.Error(t, err)
	assert.ErrorIs(t, err, errConversion)
	assert.NoFileExists(t, filepath.Join(dir, "yellow_tripdata_2022-05.csv"))
	requireNoPartFiles(t, dir)
}

func TestNormalizeDownloadReplacesParquet(t *testing.T) {
	dir := t.TempDir()
	parquetPath := filepath.Join(dir, "yellow_tripdata_2022-01.parquet")
	writeParquet(t, parquetPath, makeTripFixtures(10))

	parquetInfo, err := os.Stat(parquetPath)
	require.NoError(t, err)

	result := normalizeDownload(models.FileResult{
		Period:       datasets.Period{Year: 2022, Month: 1},
		LocalPath:    parquetPath,
		Size:         parquetInfo.Size(),
		SourceFormat: datasets.FormatParquet,
		Outcome:      models.OutcomeDownloaded,
	})

	assert.Equal(t, models.OutcomeDownloaded, result.Outcome)
	assert.True(t, result.Converted)

	csvPath := filepath.Join(dir, "yellow_tripdata_2022-01.csv")
	assert.Equal(t, csvPath, result.LocalPath)
	assert.NoFileExists(t, parquetPath, "the parquet source is removed after conversion")

	csvInfo, err := os.Stat(csvPath)
	require.NoError(t, err)
	assert.Equal(t, csvInfo.Size(), result.Size, "the result accounts for the canonical file")
}

func TestNormalizeDownloadKeepsSourceOnFailure(t *testing.T) {
	dir := t.TempDir()
	parquetPath := filepath.Join(dir, "yellow_tripdata_2022-02.parquet")
	require.NoError(t, os.WriteFile(parquetPath, []byte("truncated garbage"), 0o644))

	result := normalizeDownload(models.FileResult{
		LocalPath:    parquetPath,
		SourceFormat: datasets.FormatParquet,
		Outcome:      models.OutcomeDownloaded,
	})

	assert.Equal(t, models.OutcomeFailed, result.Outcome)
	assert.False(t, result.Converted)
	assert.NotEmpty(t, result.Error)
	assert.FileExists(t, parquetPath, "the source stays on disk for inspection")
}

func TestNormalizeDownloadPassesThroughCSV(t *testing.T) {
	result := normalizeDownload(models.FileResult{
		LocalPath:    "data/yellow_tripdata_2019-03.csv",
		Size:         123,
		SourceFormat: datasets.FormatCSV,
		Outcome:      models.OutcomeDownloaded,
	})
	assert.Equal(t, models.OutcomeDownloaded, result.Outcome)
	assert.False(t, result.Converted)
	assert.Equal(t, int64(123), result.Size)
}
