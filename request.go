package fcmrelay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kayac/fcmrelay/fcmv1"
)

// ValidationError is a malformed or incomplete inbound request.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// Notification is one message to deliver to one registration token.
type Notification struct {
	Token string
	Title string
	Body  string
	Image string
	Link  string
}

// Payload builds the fcm v1 payload of n.
func (n Notification) Payload() fcmv1.Payload {
	return fcmv1.NewPayload(n.Token, n.Title, n.Body, n.Image, n.Link)
}

// SingleMessageRequest is posted to /send-single-message.
type SingleMessageRequest struct {
	Token string `json:"token"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Image string `json:"image,omitempty"`
	Link  string `json:"link,omitempty"`
}

// MultipleMessagesRequest is posted to /send-multiple-messages.
type MultipleMessagesRequest struct {
	Tokens json.RawMessage `json:"tokens"`
	Title  string          `json:"title"`
	Body   string          `json:"body"`
	Image  string          `json:"image,omitempty"`
	Link   string          `json:"link,omitempty"`
}

// MultipleMessagesValRequest is posted to /send-multiple-messages-val.
type MultipleMessagesValRequest struct {
	Tokens json.RawMessage `json:"tokens"`
	Title  string          `json:"title"`
	Body   string          `json:"body"`
	Image  string          `json:"image,omitempty"`
	Link   string          `json:"link,omitempty"`
}

// Recipient is one element of MultipleMessagesValRequest.Tokens.
type Recipient struct {
	Token string          `json:"token"`
	Vars  json.RawMessage `json:"vars,omitempty"`
}

// decodeRequest reports a field of the wrong JSON type with typeMsg.
func decodeRequest(src io.Reader, v interface{}, typeMsg string) error {
	dec := json.NewDecoder(src)
	if err := dec.Decode(v); err != nil {
		if _, ok := err.(*json.UnmarshalTypeError); ok {
			return ValidationError{Message: typeMsg}
		}
		return ValidationError{Message: fmt.Sprintf("Malformed JSON body: %s", err)}
	}
	return nil
}

// NewSingleNotification decodes and validates a single message request.
func NewSingleNotification(src io.Reader) (Notification, error) {
	var r SingleMessageRequest
	if err := decodeRequest(src, &r, msgMissingSingleParams); err != nil {
		return Notification{}, err
	}
	if r.Token == "" || r.Title == "" || r.Body == "" {
		return Notification{}, ValidationError{Message: msgMissingSingleParams}
	}
	return Notification{
		Token: r.Token,
		Title: r.Title,
		Body:  r.Body,
		Image: r.Image,
		Link:  r.Link,
	}, nil
}

// NewBatchNotifications decodes and validates a multiple messages request.
func NewBatchNotifications(src io.Reader, maxSize int) ([]Notification, error) {
	var r MultipleMessagesRequest
	if err := decodeRequest(src, &r, msgInvalidBatchParams); err != nil {
		return nil, err
	}
	var elems []json.RawMessage
	if r.Title == "" || r.Body == "" || !isJSONArray(r.Tokens) || json.Unmarshal(r.Tokens, &elems) != nil {
		return nil, ValidationError{Message: msgInvalidBatchParams}
	}
	if err := validateBatchSize(len(elems), maxSize); err != nil {
		return nil, err
	}

	ns := make([]Notification, len(elems))
	for i, e := range elems {
		ns[i] = Notification{
			Token: tokenText(e),
			Title: r.Title,
			Body:  r.Body,
			Image: r.Image,
			Link:  r.Link,
		}
	}
	return ns, nil
}

// NewTemplateNotifications decodes and validates a multiple messages request with
// per-recipient vars, rendering title and body for every recipient.
func NewTemplateNotifications(src io.Reader, maxSize int) ([]Notification, error) {
	var r MultipleMessagesValRequest
	if err := decodeRequest(src, &r, msgInvalidBatchParams); err != nil {
		return nil, err
	}
	var elems []json.RawMessage
	if r.Title == "" || r.Body == "" || !isJSONArray(r.Tokens) || json.Unmarshal(r.Tokens, &elems) != nil {
		return nil, ValidationError{Message: msgInvalidBatchParams}
	}
	if err := validateBatchSize(len(elems), maxSize); err != nil {
		return nil, err
	}

	ns := make([]Notification, len(elems))
	for i, e := range elems {
		rc := parseRecipient(e)
		vars := ParseTemplateVars(rc.Vars)
		ns[i] = Notification{
			Token: rc.Token,
			Title: RenderTemplate(r.Title, vars),
			Body:  RenderTemplate(r.Body, vars),
			Image: r.Image,
			Link:  r.Link,
		}
	}
	return ns, nil
}

// parseRecipient accepts {token, vars} or a bare token. Anything else is
// sent as is and left for fcm to reject.
func parseRecipient(raw json.RawMessage) Recipient {
	var obj struct {
		Token json.RawMessage `json:"token"`
		Vars  json.RawMessage `json:"vars"`
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &obj) == nil {
		return Recipient{Token: tokenText(obj.Token), Vars: obj.Vars}
	}
	return Recipient{Token: tokenText(raw)}
}

// tokenText returns a JSON string's value, or the JSON text of any other value.
func tokenText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func validateBatchSize(n, maxSize int) error {
	if maxSize > 0 && n > maxSize {
		return ValidationError{Message: fmt.Sprintf("'tokens' was too long. Be %d or less: %d", maxSize, n)}
	}
	return nil
}

func isJSONArray(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
