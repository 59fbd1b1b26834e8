// Package datasets describes the NYC TLC trip-record datasets: the closed
// set of dataset kinds, monthly period arithmetic, and the resolution of
// canonical local filenames and remote locations.
package datasets

import (
	"fmt"
	"strings"
)

// DefaultBaseURL is the public CloudFront mirror serving TLC trip-record files.
const DefaultBaseURL = "https://d37ci6vzurychx.cloudfront.net/trip-data"

// ParquetCutoverYear is the first year for which the provider publishes
// trip records as parquet; earlier years are served as plain CSV.
const ParquetCutoverYear = 2022

// Kind identifies one trip-record dataset family.
type Kind string

// Supported dataset kinds.
const (
	KindYellow Kind = "yellow"
	KindGreen  Kind = "green"
	KindFHV    Kind = "fhv"
	KindFHVHV  Kind = "fhvhv"
)

// Kinds returns all supported dataset kinds.
func Kinds() []Kind {
	return []Kind{KindYellow, KindGreen, KindFHV, KindFHVHV}
}

// String returns the string representation of the dataset kind.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is a supported dataset kind.
func (k Kind) Valid() bool {
	switch k {
	case KindYellow, KindGreen, KindFHV, KindFHVHV:
		return true
	default:
		return false
	}
}

// ParseKind converts a string to a Kind.
func ParseKind(str string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(str)))
	if !k.Valid() {
		return "", fmt.Errorf("invalid dataset kind: %q", str)
	}
	return k, nil
}

// SourceFormat is the file format the provider serves for a given period.
type SourceFormat string

// Source formats. CSV is also the canonical local format; parquet files
// are converted after download.
const (
	FormatParquet SourceFormat = "parquet"
	FormatCSV     SourceFormat = "csv"
)

// String returns the string representation of the source format, which is
// also the file extension.
func (f SourceFormat) String() string {
	return string(f)
}

// FormatFor returns the provider-side format for p under the format-era
// rule: parquet at or after ParquetCutoverYear, CSV before it.
func FormatFor(p Period) SourceFormat {
	if p.Year >= ParquetCutoverYear {
		return FormatParquet
	}
	return FormatCSV
}

// FileName returns the canonical local artifact name for one period. The
// canonical name always carries the flat-text extension, regardless of the
// format the provider serves for that period.
func FileName(k Kind, p Period) string {
	return fmt.Sprintf("%s_tripdata_%d-%02d.csv", k, p.Year, p.Month)
}

// RemoteFileName returns the object name published by the provider for one
// period, extension following the format-era rule.
func RemoteFileName(k Kind, p Period) string {
	return fmt.Sprintf("%s_tripdata_%d-%02d.%s", k, p.Year, p.Month, FormatFor(p))
}

// URL resolves the remote location for one period against a base URL.
func URL(base string, k Kind, p Period) string {
	return strings.TrimRight(base, "/") + "/" + RemoteFileName(k, p)
}
