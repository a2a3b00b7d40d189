package fcmv1

import (
	"encoding/json"
	"net/http"
)

const Provider = "fcmv1"

// ResponseBody fcm response body
type ResponseBody struct {
	Name  string    `json:"name,omitempty"`
	Error *FCMError `json:"error,omitempty"`
}

type FCMError struct {
	Code    int      `json:"code,omitempty"`
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Details []Detail `json:"details,omitempty"`
}

type Detail struct {
	Type      string `json:"@type"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// Response is a raw reply from fcm for one registration token.
type Response struct {
	StatusCode int
	Token      string
	Body       []byte
}

// Decode parses the body as a ResponseBody.
func (r *Response) Decode() (ResponseBody, error) {
	var body ResponseBody
	err := json.Unmarshal(r.Body, &body)
	return body, err
}

// Reason returns the fcm error status, or the HTTP status text when the body has none.
func (r *Response) Reason() string {
	if body, err := r.Decode(); err == nil && body.Error != nil {
		if body.Error.Status != "" {
			return body.Error.Status
		}
		return body.Error.Message
	}
	return http.StatusText(r.StatusCode)
}

// JSON returns the body as raw JSON. A body that is not JSON is encoded as a JSON string.
func (r *Response) JSON() json.RawMessage {
	return RawJSON(r.Body)
}

// RawJSON wraps b as json.RawMessage, quoting it when it is not valid JSON.
func RawJSON(b []byte) json.RawMessage {
	if len(b) > 0 && json.Valid(b) {
		return json.RawMessage(b)
	}
	s, _ := json.Marshal(string(b))
	return json.RawMessage(s)
}
