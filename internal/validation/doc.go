// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps a thread-safe singleton validator and translates field errors
// into the VALIDATION_ERROR shape the HTTP API returns. Field names in
// messages are the JSON names of the request fields, so a client sees
// "credit_score must be less than or equal to 850" rather than a Go
// identifier.
//
// # Custom Tags
//
//   - employment: empty, or a status understood by
//     features.LookupEmploymentStatus (full_time, "Part-Time", "self employed")
//
// # Usage
//
//	type ProfileRequest struct {
//	    Age         *float64 `json:"age" validate:"required,gte=18,lte=100"`
//	    CreditScore *float64 `json:"credit_score" validate:"required,gte=300,lte=850"`
//	    Employment  string   `json:"employment_status" validate:"employment"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// A single failure carries field, tag and value in Details; multiple
// failures carry a "fields" list and a message joining every failure.
//
// # Thread Safety
//
// GetValidator initializes the validator once; the instance caches struct
// metadata and is safe for concurrent use.
package validation
