package records

import (
	"fmt"
	"log"

	"staffsuite/internal/metrics"
)

// Result is a decoded scan. Skipped counts entries dropped as malformed, so
// len(Records)+Skipped equals the number of scanned entries.
type Result[T any] struct {
	Records []T
	Skipped int
}

// DecodeAll runs decode over every entry in storage order. A decode error
// marks the entry malformed; under SkipMalformed it is counted and dropped.
func DecodeAll[T any](stream Stream, entries []Entry, policy DecodePolicy, decode func(Entry) (T, error)) (Result[T], error) {
	res := Result[T]{Records: make([]T, 0, len(entries))}
	for _, e := range entries {
		rec, err := decode(e)
		if err != nil {
			if policy == FailMalformed {
				return Result[T]{}, fmt.Errorf("%s: %w: %q: %v", stream.Name, ErrMalformed, e.Raw, err)
			}
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	if res.Skipped > 0 {
		metrics.DecodeSkipped.WithLabelValues(stream.Name).Add(float64(res.Skipped))
		log.Printf("%s: skipped %d malformed record(s) of %d", stream.Name, res.Skipped, len(entries))
	}
	return res, nil
}
