// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package recommend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/confluo/internal/geocode"
)

// ErrCapacity is returned when the pipeline is saturated and a slot did
// not free up within the queue timeout. Callers should retry later.
var ErrCapacity = errors.New("recommendation capacity exceeded")

// InvalidInputError reports a request field that failed a semantic check
// the validator cannot express (e.g. all locations blank after trimming).
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PartialGeocodeError aggregates every location that failed to resolve.
// The pipeline resolves all locations before giving up, so the caller
// sees the complete list of problem inputs in one response rather than
// fixing them one at a time.
type PartialGeocodeError struct {
	Failures []*geocode.GeocodeError
}

func (e *PartialGeocodeError) Error() string {
	inputs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		inputs[i] = f.Input
	}
	return fmt.Sprintf("geocode failed for %d location(s): %s",
		len(e.Failures), strings.Join(inputs, ", "))
}

// FailedInputs returns the raw location strings that could not be resolved.
func (e *PartialGeocodeError) FailedInputs() []string {
	inputs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		inputs[i] = f.Input
	}
	return inputs
}

// NoCandidatesError is returned when the search ladder, including the
// widened radius and the default venue set, produced no venues near the
// centroid.
type NoCandidatesError struct {
	Keyword string
	RadiusM int
}

func (e *NoCandidatesError) Error() string {
	return fmt.Sprintf("no candidates for %q within %dm of the centroid", e.Keyword, e.RadiusM)
}
