package datasets

import (
	"errors"
	"fmt"
)

// ErrInvalidRange indicates a malformed period range. Submissions carrying
// one are rejected before a job is created.
var ErrInvalidRange = errors.New("invalid period range")

// Period is one (year, month) unit of a dataset, the granularity of a
// single remote file.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// Valid reports whether the period denotes a real calendar month.
func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= 1 && p.Month <= 12
}

// String returns the period in YYYY-MM form.
func (p Period) String() string {
	return fmt.Sprintf("%d-%02d", p.Year, p.Month)
}

// Before reports whether p precedes q in calendar order.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// Next returns the following calendar month, incrementing the year after
// December.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Range is an inclusive period range.
type Range struct {
	Start Period `json:"start"`
	End   Period `json:"end"`
}

// String returns the range in YYYY-MM..YYYY-MM form.
func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}

// Validate checks that both bounds are real months and that the range is
// not reversed.
func (r Range) Validate() error {
	if !r.Start.Valid() {
		return fmt.Errorf("%w: start %s is not a calendar month", ErrInvalidRange, r.Start)
	}
	if !r.End.Valid() {
		return fmt.Errorf("%w: end %s is not a calendar month", ErrInvalidRange, r.End)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

// Months returns the number of periods in the range, inclusive of both
// ends. Only meaningful for a valid range.
func (r Range) Months() int {
	return (r.End.Year-r.Start.Year)*12 + (r.End.Month - r.Start.Month) + 1
}

// Periods enumerates the range in ascending calendar order, both ends
// inclusive. The slice is freshly allocated on every call, so it can be
// re-consumed for progress display without side effects.
func (r Range) Periods() ([]Period, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	periods := make([]Period, 0, r.Months())
	for p := r.Start; !r.End.Before(p); p = p.Next() {
		periods = append(periods, p)
	}
	return periods, nil
}
