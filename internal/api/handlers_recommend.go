// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/finsegment/internal/logging"
	"github.com/tomtom215/finsegment/internal/metrics"
	"github.com/tomtom215/finsegment/internal/recommend"
	"github.com/tomtom215/finsegment/internal/validation"
)

// maxProfileBodyBytes caps the size of a recommendation request body.
const maxProfileBodyBytes = 64 << 10

// RecommendationResponse is the API shape of one inference result. Maps are
// keyed by category wire name.
type RecommendationResponse struct {
	ClusterID            int                           `json:"cluster_id"`
	SegmentDistance      float64                       `json:"segment_distance"`
	FinancialHealthScore float64                       `json:"financial_health_score"`
	BundleVersion        int                           `json:"bundle_version"`
	Recommendations      map[string]string             `json:"recommendations"`
	Confidence           map[string]float64            `json:"confidence"`
	Probabilities        map[string]map[string]float64 `json:"probabilities"`
}

// NewRecommendationResponse converts an engine result.
func NewRecommendationResponse(res *recommend.Result) *RecommendationResponse {
	out := &RecommendationResponse{
		ClusterID:            res.ClusterID,
		SegmentDistance:      res.SegmentDistance,
		FinancialHealthScore: res.FinancialHealthScore,
		BundleVersion:        res.BundleVersion,
		Recommendations:      make(map[string]string, recommend.NumCategories),
		Confidence:           make(map[string]float64, recommend.NumCategories),
		Probabilities:        make(map[string]map[string]float64, recommend.NumCategories),
	}
	for _, c := range recommend.Categories {
		rec := res.For(c)
		name := c.String()
		out.Recommendations[name] = rec.Label
		out.Confidence[name] = rec.Confidence

		dist := make(map[string]float64, len(rec.Probabilities))
		for i, p := range rec.Probabilities {
			dist[c.Label(i)] = p
		}
		out.Probabilities[name] = dist
	}
	return out
}

// Recommend handles POST /api/v1/recommendations and POST /predict.
//
// The body is a ProfileRequest. Responds 400 when the body fails validation,
// 503 when no bundle is loaded and 500 on a schema mismatch.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	start := time.Now()

	var req ProfileRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxProfileBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordPrediction(metrics.PredictionInvalid, 0, time.Since(start))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
			return
		}
		rw.BadRequest("Invalid JSON body")
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		metrics.RecordPrediction(metrics.PredictionInvalid, 0, time.Since(start))
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.RequestTimeout)
	defer cancel()

	res, err := h.engine.Recommend(ctx, req.ToProfile())
	if err != nil {
		metrics.RecordPrediction(predictionResult(err), 0, time.Since(start))
		if !errors.Is(err, recommend.ErrModelNotReady) {
			logging.Ctx(r.Context()).Error().Err(err).Msg("inference failed")
		}
		rw.EngineError(err)
		return
	}

	metrics.RecordPrediction(metrics.PredictionSuccess, res.ClusterID, time.Since(start))
	for _, c := range recommend.Categories {
		metrics.RecordRecommendedProduct(c.String(), res.For(c).Label)
	}

	rw.Success(NewRecommendationResponse(res))
}

// predictionResult maps an inference error to its metrics label.
func predictionResult(err error) string {
	switch {
	case errors.Is(err, recommend.ErrModelNotReady):
		return metrics.PredictionNotReady
	case errors.Is(err, recommend.ErrSchemaMismatch):
		return metrics.PredictionSchemaMismatch
	default:
		return metrics.PredictionError
	}
}
