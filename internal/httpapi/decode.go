package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Request bodies are capped well above any legitimate payload; the largest
// write on this API is a product listing.
const maxRequestBody = 1 << 20

// decodeJSON reads exactly one JSON value from the request body into dst.
// Unknown fields and trailing values are rejected so clients notice typoed
// keys instead of silently losing them.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single json value")
	}
	return nil
}
