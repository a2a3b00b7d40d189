package fcmrelay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kayac/fcmrelay/fcmv1"
	"github.com/sirupsen/logrus"
)

// Sender sends one payload upstream.
type Sender interface {
	Send(ctx context.Context, accessToken string, p fcmv1.Payload) (*fcmv1.Response, error)
}

// Dispatcher sends notifications to fcm and collects one result per registration token.
type Dispatcher struct {
	sender      Sender
	concurrency int
}

// NewDispatcher creates a Dispatcher. concurrency bounds the number of in-flight sends
// of one batch; 1 or less sends in input order.
func NewDispatcher(sender Sender, concurrency int) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		sender:      sender,
		concurrency: concurrency,
	}
}

// DispatchOne sends n and returns its result. The error is the upstream or transport failure;
// the result is filled in either case.
func (d *Dispatcher) DispatchOne(ctx context.Context, accessToken string, n Notification) (DispatchResult, error) {
	logf := logrus.Fields{
		"type":    "dispatch",
		"req_uid": RequestUID(ctx),
		"token":   n.Token,
	}

	start := time.Now()
	res, err := d.sender.Send(ctx, accessToken, n.Payload())
	logf["response_time"] = time.Since(start).Seconds()
	srvStats.countSend(err)

	result := DispatchResult{Token: n.Token}
	if res != nil {
		result.HTTPCode = res.StatusCode
		result.Response = res.JSON()
		logf["status"] = res.StatusCode
	} else if e, ok := fcmv1.AsError(err); ok {
		result.HTTPCode = e.StatusCode
		result.Response = failedToSendJSON
		logf["status"] = e.StatusCode
	} else {
		result.HTTPCode = 500
		result.Response = failedToSendJSON
		logf["status"] = "-"
	}

	if err != nil {
		LogWithFields(logf).Errorf("Failed to send a notification: %s", err)
	} else {
		LogWithFields(logf).Info("Succeeded to send a notification")
	}
	return result, err
}

// DispatchBatch sends every notification, each independently of the others,
// and returns the results in the order of ns.
func (d *Dispatcher) DispatchBatch(ctx context.Context, accessToken string, ns []Notification) []DispatchResult {
	results := make([]DispatchResult, len(ns))
	if d.concurrency == 1 {
		for i, n := range ns {
			results[i], _ = d.DispatchOne(ctx, accessToken, n)
		}
		return results
	}

	sem := make(chan struct{}, d.concurrency)
	var wg sync.WaitGroup
	for i, n := range ns {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, n Notification) {
			defer func() {
				<-sem
				wg.Done()
			}()
			results[i], _ = d.DispatchOne(ctx, accessToken, n)
		}(i, n)
	}
	wg.Wait()
	return results
}

var failedToSendJSON = mustMarshal(msgFailedToSend)

func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
