package fcmrelay

import (
	"encoding/json"
)

// DispatchResult is the outcome of one send. Title and Message are only set for
// recipients whose title and body were rendered from a template.
type DispatchResult struct {
	Token    string          `json:"token"`
	HTTPCode int             `json:"httpCode"`
	Response json.RawMessage `json:"response"`
	Title    *string         `json:"title,omitempty"`
	Message  *string         `json:"message,omitempty"`
}

// BatchResponse is returned by the multiple messages routes.
type BatchResponse struct {
	Results []DispatchResult `json:"results"`
}

// ErrorResponse is returned on validation, token and single send failures.
type ErrorResponse struct {
	Error interface{} `json:"error"`
}

// TokenResponse is returned by /generate-token-misba.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}
