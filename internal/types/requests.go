package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jungho-shin/data-migration-study/internal/datasets"
)

// SubmitJobRequest is the payload for creating an acquisition job
type SubmitJobRequest struct {
	Dataset    string `json:"dataset"`
	StartYear  int    `json:"start_year"`
	StartMonth int    `json:"start_month"`
	EndYear    int    `json:"end_year"`
	EndMonth   int    `json:"end_month"`
	MaxBytes   int64  `json:"max_bytes,omitempty"`
	MaxFiles   int    `json:"max_files,omitempty"`
	OutputDir  string `json:"output_dir,omitempty"`
}

// Kind returns the parsed dataset kind
func (r *SubmitJobRequest) Kind() (datasets.Kind, error) {
	return datasets.ParseKind(r.Dataset)
}

// Range returns the requested period range
func (r *SubmitJobRequest) Range() datasets.Range {
	return datasets.Range{
		Start: datasets.Period{Year: r.StartYear, Month: r.StartMonth},
		End:   datasets.Period{Year: r.EndYear, Month: r.EndMonth},
	}
}

// Validate checks the request before a job is created from it
func (r *SubmitJobRequest) Validate() error {
	if _, err := r.Kind(); err != nil {
		return err
	}
	if err := r.Range().Validate(); err != nil {
		return err
	}
	if r.MaxBytes < 0 {
		return fmt.Errorf("max_bytes cannot be negative")
	}
	if r.MaxFiles < 0 {
		return fmt.Errorf("max_files cannot be negative")
	}
	return nil
}

// DecodeStrict parses body into v, rejecting unknown fields so a mistyped
// option cannot silently yield an unconstrained job
func DecodeStrict(body []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected trailing data after JSON body")
	}
	return nil
}
