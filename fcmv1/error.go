package fcmv1

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error const variables
const (
	InvalidArgument  = "INVALID_ARGUMENT"
	Unregistered     = "UNREGISTERED"
	NotFound         = "NOT_FOUND"
	Unavailable      = "UNAVAILABLE"
	Internal         = "INTERNAL"
	QuotaExceeded    = "QUOTA_EXCEEDED"
	SenderIDMismatch = "SENDER_ID_MISMATCH"
)

// ErrTokenUnavailable is returned when an access token cannot be obtained.
var ErrTokenUnavailable = errors.New("access token unavailable")

// Error is a non-2xx reply from fcm.
type Error struct {
	StatusCode int
	Reason     string
	Body       []byte
}

func (e Error) Error() string {
	return fmt.Sprintf("status:%d reason:%s", e.StatusCode, e.Reason)
}

func NewError(s int, r string, body []byte) Error {
	return Error{
		StatusCode: s,
		Reason:     r,
		Body:       body,
	}
}

// AsError reports whether err is (or wraps) an fcm Error.
func AsError(err error) (Error, bool) {
	var e Error
	if errors.As(err, &e) {
		return e, true
	}
	return Error{}, false
}
