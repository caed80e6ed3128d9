package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"deskbook/pkg/config"
	apperrors "deskbook/pkg/errors"
)

// ExtractLimit reads the optional "limit" query parameter. Zero means the
// caller did not ask for paging.
func ExtractLimit(r *http.Request) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, apperrors.InvalidInput("invalid limit parameter: " + s)
	}
	return config.NormalizePaginationLimit(v), nil
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields and
// trailing data.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.InvalidInput("Request body cannot be empty")
		}
		return apperrors.InvalidInput("Invalid request body")
	}
	if dec.More() {
		return apperrors.InvalidInput("Request body must contain a single JSON object")
	}
	return nil
}
