package mock

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kayac/fcmrelay/fcmv1"
)

const (
	ApplicationJSON = "application/json"

	// Malformed makes the mock reply with a non-JSON body.
	Malformed = "MALFORMED"
)

// FCMv1Server mocks the fcm v1 messages:send endpoint.
// The registration token in the posted message selects the reply: a token equal to one of
// the fcm error statuses gets that error, any other token succeeds.
type FCMv1Server struct {
	ProjectID string
	Verbose   bool
	Latency   time.Duration

	count  int64
	mu     sync.Mutex
	bodies [][]byte
	auths  []string
}

// FCMv1MockServer returns a mock for projectID.
func FCMv1MockServer(projectID string, verbose bool) *FCMv1Server {
	return &FCMv1Server{
		ProjectID: projectID,
		Verbose:   verbose,
	}
}

// Path is the messages:send path of the mock project.
func (s *FCMv1Server) Path() string {
	return fmt.Sprintf("/v1/projects/%s/messages:send", s.ProjectID)
}

// Count returns the number of send requests received.
func (s *FCMv1Server) Count() int {
	return int(atomic.LoadInt64(&s.count))
}

// Bodies returns the raw request bodies in arrival order.
func (s *FCMv1Server) Bodies() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte{}, s.bodies...)
}

// Authorizations returns the Authorization headers in arrival order.
func (s *FCMv1Server) Authorizations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.auths...)
}

func (s *FCMv1Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		if s.Verbose {
			log.Printf("reqtime:%f proto:%s method:%s path:%s host:%s", reqtime(start), r.Proto, r.Method, r.URL.Path, r.RemoteAddr)
		}
	}()

	if r.URL.Path != s.Path() {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "404 Not found")
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	b, _ := ioutil.ReadAll(r.Body)
	atomic.AddInt64(&s.count, 1)
	s.mu.Lock()
	s.bodies = append(s.bodies, b)
	s.auths = append(s.auths, r.Header.Get("Authorization"))
	s.mu.Unlock()

	if s.Latency > 0 {
		time.Sleep(s.Latency)
	}

	w.Header().Set("Content-Type", ApplicationJSON)
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		createFCMv1ErrorResponse(w, http.StatusUnauthorized, "UNAUTHENTICATED")
		return
	}

	var p fcmv1.Payload
	if err := json.Unmarshal(b, &p); err != nil {
		createFCMv1ErrorResponse(w, http.StatusBadRequest, fcmv1.InvalidArgument)
		return
	}

	switch p.Message.Token {
	case fcmv1.InvalidArgument, "":
		createFCMv1ErrorResponse(w, http.StatusBadRequest, fcmv1.InvalidArgument)
	case fcmv1.Unregistered:
		createFCMv1ErrorResponse(w, http.StatusNotFound, fcmv1.Unregistered)
	case fcmv1.NotFound:
		createFCMv1ErrorResponse(w, http.StatusNotFound, fcmv1.NotFound)
	case fcmv1.SenderIDMismatch:
		createFCMv1ErrorResponse(w, http.StatusForbidden, fcmv1.SenderIDMismatch)
	case fcmv1.Unavailable:
		createFCMv1ErrorResponse(w, http.StatusServiceUnavailable, fcmv1.Unavailable)
	case fcmv1.Internal:
		createFCMv1ErrorResponse(w, http.StatusInternalServerError, fcmv1.Internal)
	case fcmv1.QuotaExceeded:
		createFCMv1ErrorResponse(w, http.StatusTooManyRequests, fcmv1.QuotaExceeded)
	case Malformed:
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html>bad gateway</html>")
	default:
		enc := json.NewEncoder(w)
		enc.Encode(fcmv1.ResponseBody{
			Name: fmt.Sprintf("projects/%s/messages/%d", s.ProjectID, s.Count()),
		})
	}
}

func createFCMv1ErrorResponse(w http.ResponseWriter, code int, status string) error {
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	return enc.Encode(fcmv1.ResponseBody{
		Error: &fcmv1.FCMError{
			Code:    code,
			Status:  status,
			Message: "mock error:" + status,
		},
	})
}

func reqtime(start time.Time) float64 {
	return time.Since(start).Seconds()
}
