package fcmrelay

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kayac/fcmrelay/fcmv1"
	"github.com/pkg/errors"
)

type fakeSender struct {
	inflight int64
	peak     int64
	delay    time.Duration
}

func (s *fakeSender) Send(ctx context.Context, accessToken string, p fcmv1.Payload) (*fcmv1.Response, error) {
	n := atomic.AddInt64(&s.inflight, 1)
	defer atomic.AddInt64(&s.inflight, -1)
	for {
		peak := atomic.LoadInt64(&s.peak)
		if n <= peak || atomic.CompareAndSwapInt64(&s.peak, peak, n) {
			break
		}
	}
	time.Sleep(s.delay)

	switch p.Message.Token {
	case "down":
		return nil, errors.New("connection refused")
	case "quota":
		return nil, fcmv1.NewError(http.StatusTooManyRequests, fcmv1.QuotaExceeded, nil)
	case "bad":
		body := []byte(`{"error":{"code":400,"status":"INVALID_ARGUMENT"}}`)
		res := &fcmv1.Response{StatusCode: http.StatusBadRequest, Token: p.Message.Token, Body: body}
		return res, fcmv1.NewError(res.StatusCode, res.Reason(), body)
	}
	return &fcmv1.Response{StatusCode: http.StatusOK, Token: p.Message.Token, Body: []byte(`{"name":"ok"}`)}, nil
}

func TestDispatchOne(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, 1)
	ctx := context.Background()

	cases := []struct {
		token    string
		code     int
		response string
		failed   bool
	}{
		{"device", http.StatusOK, `{"name":"ok"}`, false},
		{"bad", http.StatusBadRequest, `{"error":{"code":400,"status":"INVALID_ARGUMENT"}}`, true},
		{"quota", http.StatusTooManyRequests, `"Failed to send"`, true},
		{"down", http.StatusInternalServerError, `"Failed to send"`, true},
	}
	for _, c := range cases {
		res, err := d.DispatchOne(ctx, "access", Notification{Token: c.token, Title: "t", Body: "b"})
		if (err != nil) != c.failed {
			t.Errorf("%s: unexpected error: %v", c.token, err)
		}
		if res.Token != c.token || res.HTTPCode != c.code || string(res.Response) != c.response {
			t.Errorf("%s: unexpected result: %d %s", c.token, res.HTTPCode, res.Response)
		}
	}
}

func TestDispatchBatchBoundsConcurrency(t *testing.T) {
	s := &fakeSender{delay: 10 * time.Millisecond}
	d := NewDispatcher(s, 3)

	tokens := []string{"a", "down", "b", "bad", "c", "d", "e", "quota", "f"}
	ns := make([]Notification, len(tokens))
	for i, token := range tokens {
		ns[i] = Notification{Token: token, Title: "t", Body: "b"}
	}
	results := d.DispatchBatch(context.Background(), "access", ns)
	if len(results) != len(tokens) {
		t.Fatalf("one result per token expected: %d", len(results))
	}
	for i, res := range results {
		if res.Token != tokens[i] {
			t.Errorf("results[%d].token = %s, want %s", i, res.Token, tokens[i])
		}
	}
	if peak := atomic.LoadInt64(&s.peak); peak > 3 {
		t.Errorf("in-flight sends exceeded concurrency: %d", peak)
	}
}

func TestNewDispatcherMinimumConcurrency(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, 0)
	if d.concurrency != 1 {
		t.Errorf("concurrency should be at least 1: %d", d.concurrency)
	}
	results := d.DispatchBatch(context.Background(), "access", nil)
	if results == nil || len(results) != 0 {
		t.Errorf("empty batch should return an empty result list: %#v", results)
	}
}
