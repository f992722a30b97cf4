package kgclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/matsen/pdbkg/internal/apitypes"
	"github.com/matsen/pdbkg/internal/source"
)

// ErrInvalidResponse indicates a body that could not be decoded.
// It is always wrapped together with source.ErrTransport.
var ErrInvalidResponse = errors.New("invalid response from knowledge graph server")

// checkHTTPErrors converts a non-2xx response into a *source.APIError.
// See source.APIError.Unwrap for how statuses are classified.
func checkHTTPErrors(resp *http.Response, id string) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &source.APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		ID:         id,
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var er apitypes.ErrorResponse
	if json.Unmarshal(body, &er) == nil && er.Message != "" {
		apiErr.Message = er.Message
		if er.ID != "" {
			apiErr.ID = er.ID
		}
	}
	return apiErr
}

func invalidResponse(what string, err error) error {
	return fmt.Errorf("%w: %w: parsing %s: %v", source.ErrTransport, ErrInvalidResponse, what, err)
}
