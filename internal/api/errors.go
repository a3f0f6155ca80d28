// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/confluo/internal/amap"
	"github.com/tomtom215/confluo/internal/geocode"
	"github.com/tomtom215/confluo/internal/logging"
	"github.com/tomtom215/confluo/internal/places"
	"github.com/tomtom215/confluo/internal/recommend"
)

// capacityRetryAfterSeconds is sent in the Retry-After header on 503s so
// well-behaved clients back off instead of hammering a saturated engine.
const capacityRetryAfterSeconds = 5

// writePipelineError maps pipeline error types onto HTTP status codes and
// envelope error codes. Unrecognized errors become opaque 500s; the
// underlying cause goes to the log, not the client.
func writePipelineError(rw *ResponseWriter, w http.ResponseWriter, err error) {
	var (
		invalidErr  *recommend.InvalidInputError
		geocodeErr  *recommend.PartialGeocodeError
		noCandErr   *recommend.NoCandidatesError
		searchErr   *places.SearchError
		resolverErr *geocode.GeocodeError
	)

	switch {
	case errors.As(err, &invalidErr):
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationError, invalidErr.Error(),
			map[string]interface{}{"field": invalidErr.Field})

	case errors.As(err, &geocodeErr):
		rw.ErrorWithDetails(http.StatusUnprocessableEntity, ErrCodeGeocodeFailed,
			geocodeErr.Error(),
			map[string]interface{}{"failed_locations": geocodeErr.FailedInputs()})

	case errors.As(err, &noCandErr):
		rw.ErrorWithDetails(http.StatusNotFound, ErrCodeNoCandidates, noCandErr.Error(),
			map[string]interface{}{
				"keyword":  noCandErr.Keyword,
				"radius_m": noCandErr.RadiusM,
			})

	case errors.Is(err, recommend.ErrCapacity):
		w.Header().Set("Retry-After", fmt.Sprintf("%d", capacityRetryAfterSeconds))
		rw.Error(http.StatusServiceUnavailable, ErrCodeCapacityExceeded,
			"The engine is at capacity, retry shortly")

	case errors.As(err, &searchErr), errors.As(err, &resolverErr),
		errors.Is(err, amap.ErrUpstreamStatus), errors.Is(err, amap.ErrAPIRejected),
		errors.Is(err, gobreaker.ErrOpenState):
		logging.Error().Err(err).Msg("Upstream map provider failure")
		rw.Error(http.StatusBadGateway, ErrCodeUpstreamError,
			"The map provider is unavailable")

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Request canceled or timed out")

	default:
		logging.Error().Err(err).Msg("Recommendation pipeline failure")
		rw.InternalError("An internal error occurred")
	}
}
