package fcmrelay

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Application global variables
var srvStats = NewStats()

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fcmrelay_requests_total",
		Help: "Total inbound requests by route and response status.",
	}, []string{"route", "code"})
	sendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fcmrelay_sends_total",
		Help: "Total upstream sends by result (ok, error).",
	}, []string{"result"})
	tokenFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fcmrelay_token_failures_total",
		Help: "Total access token acquisition failures.",
	})
)

// Stats stores metrics
type Stats struct {
	Pid           int   `json:"pid"`
	Uptime        int64 `json:"uptime"`
	StartAt       int64 `json:"start_at"`
	Period        int64 `json:"period"`
	RequestCount  int64 `json:"req_count"`
	SentCount     int64 `json:"sent_count"`
	ErrCount      int64 `json:"err_count"`
	TokenErrCount int64 `json:"token_err_count"`
}

// NewStats initialize Stats
func NewStats() *Stats {
	return &Stats{
		Pid:     os.Getpid(),
		StartAt: time.Now().Unix(),
	}
}

// GetStats returns a snapshot of the counters
func (st *Stats) GetStats() Stats {
	now := time.Now().Unix()
	uptime := now - atomic.LoadInt64(&st.StartAt)
	prev := atomic.SwapInt64(&st.Uptime, uptime)
	return Stats{
		Pid:           st.Pid,
		Uptime:        uptime,
		StartAt:       atomic.LoadInt64(&st.StartAt),
		Period:        uptime - prev,
		RequestCount:  atomic.LoadInt64(&st.RequestCount),
		SentCount:     atomic.LoadInt64(&st.SentCount),
		ErrCount:      atomic.LoadInt64(&st.ErrCount),
		TokenErrCount: atomic.LoadInt64(&st.TokenErrCount),
	}
}

func (st *Stats) countRequest() {
	atomic.AddInt64(&st.RequestCount, 1)
}

func (st *Stats) countSend(err error) {
	if err != nil {
		atomic.AddInt64(&st.ErrCount, 1)
		sendsTotal.WithLabelValues("error").Inc()
		return
	}
	atomic.AddInt64(&st.SentCount, 1)
	sendsTotal.WithLabelValues("ok").Inc()
}

func (st *Stats) countTokenError() {
	atomic.AddInt64(&st.TokenErrCount, 1)
	tokenFailuresTotal.Inc()
}
