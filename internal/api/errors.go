// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/finsegment/internal/recommend"
	"github.com/tomtom215/finsegment/internal/recommend/storage"
	"github.com/tomtom215/finsegment/internal/runs"
)

// ErrTrainerUnavailable is returned when training is requested on a server
// that was started without a trainer.
var ErrTrainerUnavailable = errors.New("training is not configured on this server")

// errorMapping is the HTTP shape of one engine error.
type errorMapping struct {
	status  int
	code    string
	message string
}

// mapError maps engine, store and ledger errors onto HTTP responses.
// Unrecognized errors become a 500 without leaking the error text.
func mapError(err error) errorMapping {
	switch {
	case errors.Is(err, recommend.ErrModelNotReady):
		return errorMapping{http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "No model bundle is loaded"}
	case errors.Is(err, recommend.ErrSchemaMismatch):
		return errorMapping{http.StatusInternalServerError, ErrCodeSchemaMismatch, "Model bundle does not match the serving feature schema"}
	case errors.Is(err, recommend.ErrTrainingInProgress):
		return errorMapping{http.StatusConflict, ErrCodeConflict, "Training is already in progress"}
	case errors.Is(err, recommend.ErrTrainingData):
		return errorMapping{http.StatusUnprocessableEntity, ErrCodeValidation, err.Error()}
	case errors.Is(err, storage.ErrModelNotFound):
		return errorMapping{http.StatusNotFound, ErrCodeNotFound, "Model bundle version not found"}
	case errors.Is(err, storage.ErrChecksum):
		return errorMapping{http.StatusInternalServerError, ErrCodeInternalError, "Stored model bundle failed its integrity check"}
	case errors.Is(err, runs.ErrRunNotFound):
		return errorMapping{http.StatusNotFound, ErrCodeNotFound, "Training run not found"}
	case errors.Is(err, ErrTrainerUnavailable):
		return errorMapping{http.StatusServiceUnavailable, ErrCodeServiceUnavailable, err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return errorMapping{http.StatusGatewayTimeout, ErrCodeTimeout, "Request timed out"}
	default:
		return errorMapping{http.StatusInternalServerError, ErrCodeInternalError, "Internal server error"}
	}
}

// EngineError writes the response for err.
func (rw *ResponseWriter) EngineError(err error) {
	m := mapError(err)
	rw.Error(m.status, m.code, m.message)
}
