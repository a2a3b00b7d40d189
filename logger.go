package fcmrelay

import (
	"context"
	"fmt"
	"runtime"

	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

type ctxKey int

const reqUIDKey ctxKey = iota

// LogWithFields wraps logrus's WithFields
func LogWithFields(fields map[string]interface{}) *logrus.Entry {
	_, file, line, _ := runtime.Caller(1)

	fields["file"] = file
	fields["line"] = fmt.Sprintf("%d", line)

	return logrus.WithFields(fields)
}

// WithRequestUID returns a context carrying a new request id.
func WithRequestUID(ctx context.Context) context.Context {
	return context.WithValue(ctx, reqUIDKey, uuid.NewV4().String())
}

// RequestUID returns the request id of ctx, or "-".
func RequestUID(ctx context.Context) string {
	if v, ok := ctx.Value(reqUIDKey).(string); ok {
		return v
	}
	return "-"
}
