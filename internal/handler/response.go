// Package handler holds the HTTP response envelope shared by all routes.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gersemi/storefront/internal/domain"
	"github.com/gersemi/storefront/internal/middleware"
)

// Response is the uniform JSON envelope for every endpoint.
type Response struct {
	Success  bool           `json:"success"`
	Resource any            `json:"resource,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// JSON writes a response with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a 200 response wrapping the resource.
func OK(w http.ResponseWriter, resource any) {
	JSON(w, http.StatusOK, Response{Success: true, Resource: resource})
}

// Created writes a 201 response wrapping the resource.
func Created(w http.ResponseWriter, resource any) {
	JSON(w, http.StatusCreated, Response{Success: true, Resource: resource})
}

// Error writes an error response derived from the domain error model.
// Field-level validation failures are reported per field in the metadata so
// the client can annotate its form.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	logger := middleware.GetLogger(r.Context())

	if fields := domain.GetValidationFields(err); fields != nil {
		messages := make([]string, 0, len(fields))
		meta := make(map[string]any, len(fields))
		for field, msg := range fields {
			messages = append(messages, field+": "+msg)
			meta[field] = msg
		}
		logger.Info("validation failed", "fields", len(fields))
		JSON(w, http.StatusUnprocessableEntity, Response{
			Errors:   messages,
			Metadata: map[string]any{"fields": meta},
		})
		return
	}

	code := domain.ErrorCode(err)
	status := statusForCode(code)
	if status >= 500 {
		logger.Error("request failed", "error", err, "code", code)
	} else {
		logger.Info("request rejected", "error", err, "code", code)
	}

	JSON(w, status, Response{
		Errors:   []string{domain.ErrorMessage(err)},
		Metadata: map[string]any{"code": code},
	})
}

func statusForCode(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
