// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MKhiriev/amestris-client/models"
)

// WriteJSON serializes data to JSON and writes it with statusCode and a
// "Content-Type: application/json" header.
//
// If marshaling fails, it responds with 500 Internal Server Error
// and returns a wrapped error.
//
// Example usage:
//
//	WriteJSON(w, models.Material{ID: 1, Name: "Iron"}, http.StatusOK)
func WriteJSON(w http.ResponseWriter, data any, statusCode int) (int, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "error writing data to JSON", http.StatusInternalServerError)
		return 0, fmt.Errorf("error writing data to JSON: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	return w.Write(jsonData)
}

// WriteError writes the backend's error body {"error": message, "fields": ...}.
// fields may be nil.
func WriteError(w http.ResponseWriter, statusCode int, message string, fields map[string]string) {
	_, _ = WriteJSON(w, models.ErrorResponse{Error: message, Fields: fields}, statusCode)
}
