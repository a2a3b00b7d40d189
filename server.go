package fcmrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	stats_api "github.com/fukata/golang-stats-api-handler"
	"github.com/kayac/fcmrelay/config"
	"github.com/kayac/fcmrelay/fcmv1"
	"github.com/lestrrat-go/server-starter/listener"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"
)

// TokenSource provides access tokens for upstream sends.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Provider defines the relay's http handlers.
type Provider struct {
	Tokens       TokenSource
	Dispatcher   *Dispatcher
	MaxBatchSize int
	CORSOrigin   string
}

// NewProvider wires the token provider and the fcm v1 client from conf.
func NewProvider(conf config.Config) (*Provider, error) {
	ep, err := conf.FCMv1.EndpointURL()
	if err != nil {
		return nil, err
	}
	client, err := fcmv1.NewClient(conf.FCMv1.ProjectID, ep, conf.Provider.Timeout())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fcm v1 client")
	}
	tokens := fcmv1.NewTokenProvider(
		conf.FCMv1.ClientEmail,
		conf.FCMv1.PrivateKey,
		conf.FCMv1.TokenURL,
		conf.Provider.Timeout(),
		conf.FCMv1.CacheToken,
	)

	return &Provider{
		Tokens:       tokens,
		Dispatcher:   NewDispatcher(client, conf.Provider.BatchConcurrency),
		MaxBatchSize: conf.Provider.MaxBatchSize,
		CORSOrigin:   conf.Provider.CORSOrigin,
	}, nil
}

// StartServer starts a relay server on http.
func StartServer(conf config.Config) {
	prov, err := NewProvider(conf)
	if err != nil {
		LogWithFields(logrus.Fields{
			"type": "provider",
		}).Fatalf("Failed to start relay: %s", err.Error())
	}
	if !conf.FCMv1.HasCredential() {
		LogWithFields(logrus.Fields{
			"type": "provider",
		}).Warn("client_email or private_key is empty. Every token request will fail.")
	}

	// StartServer listener
	listeners, err := listener.ListenAll()
	if err != nil {
		LogWithFields(logrus.Fields{
			"type": "provider",
		}).Infof("%s. If you want graceful to restart relay, you should use 'start_server' (github.com/lestrrat-go/server-starter).", err)
	}

	var lis net.Listener
	if err != nil || len(listeners) == 0 {
		// Fallback if not running under ServerStarter
		service := fmt.Sprintf(":%d", conf.Provider.Port)
		lis, err = net.Listen("tcp", service)
		if err != nil {
			LogWithFields(logrus.Fields{
				"type": "provider",
			}).Error(err)
			return
		}
	} else {
		if l, ok := listeners[0].Addr().(*net.TCPAddr); ok && l.Port != conf.Provider.Port {
			LogWithFields(logrus.Fields{
				"type": "provider",
			}).Infof("'start_server' starts on :%d", l.Port)
			conf.Provider.Port = l.Port
		}
		lis = listeners[0]
	}

	llis := netutil.LimitListener(lis, conf.Provider.MaxConnections)

	LogWithFields(logrus.Fields{
		"type":       "provider",
		"project_id": conf.FCMv1.ProjectID,
	}).Infof("Starts relay on :%d ...", conf.Provider.Port)
	if prov.CORSOrigin != "" {
		LogWithFields(logrus.Fields{
			"type": "provider",
		}).Infof("Enable CORS for %s", prov.CORSOrigin)
	}

	srv := &http.Server{Handler: prov.Handler()}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		if err := srv.Serve(llis); err != nil && err != http.ErrServerClosed {
			LogWithFields(logrus.Fields{}).Error(err)
		}
		wg.Done()
	}()

	// signal handling
	wg.Add(1)
	go startSignalReciever(&wg, srv)

	// wait for server shutdown complete
	wg.Wait()

	LogWithFields(logrus.Fields{
		"type": "provider",
	}).Info("Stopped server")
}

// Handler returns the routes of the relay.
func (prov *Provider) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(GenerateTokenPath, prov.GenerateTokenHandler())
	mux.HandleFunc(SendSingleMessagePath, prov.SendSingleMessageHandler())
	mux.HandleFunc(SendMultipleMessagesPath, prov.SendMultipleMessagesHandler())
	mux.HandleFunc(SendMultipleMessagesValPath, prov.SendMultipleMessagesValHandler())
	mux.HandleFunc(StatsAppPath, prov.StatsHandler())
	mux.HandleFunc(StatsProfilePath, stats_api.Handler)
	mux.Handle(MetricsPath, promhttp.Handler())

	if prov.CORSOrigin == "" {
		return mux
	}
	return prov.corsHandler(mux)
}

func (prov *Provider) corsHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		h := res.Header()
		h.Set("Access-Control-Allow-Origin", prov.CORSOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")
		if req.Method == http.MethodOptions {
			res.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(res, req)
	})
}

// GenerateTokenHandler returns a fresh access token.
func (prov *Provider) GenerateTokenHandler() http.HandlerFunc {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		srvStats.countRequest()
		ctx := WithRequestUID(req.Context())

		if err := validateMethod(res, req, http.MethodGet); err != nil {
			logrus.Warn(err)
			return
		}

		token, ok := prov.accessToken(ctx)
		if !ok {
			writeJSON(res, req, http.StatusInternalServerError, ErrorResponse{Error: msgFailedToGenerateToken})
			return
		}
		writeJSON(res, req, http.StatusOK, TokenResponse{AccessToken: token})
	})
}

// SendSingleMessageHandler sends one notification and passes the upstream reply through.
func (prov *Provider) SendSingleMessageHandler() http.HandlerFunc {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		srvStats.countRequest()
		ctx := WithRequestUID(req.Context())

		if err := validateRequest(res, req, msgMissingSingleParams); err != nil {
			logrus.Warn(err)
			return
		}

		n, err := NewSingleNotification(http.MaxBytesReader(res, req.Body, MaxRequestBodySize))
		if err != nil {
			badRequest(ctx, res, req, err)
			return
		}

		token, ok := prov.accessToken(ctx)
		if !ok {
			writeJSON(res, req, http.StatusInternalServerError, ErrorResponse{Error: msgFailedToGetToken})
			return
		}

		result, err := prov.Dispatcher.DispatchOne(ctx, token, n)
		if err != nil {
			var body interface{} = msgFailedToSendMessage
			if e, ok := fcmv1.AsError(err); ok && len(e.Body) > 0 {
				body = fcmv1.RawJSON(e.Body)
			}
			writeJSON(res, req, result.HTTPCode, ErrorResponse{Error: body})
			return
		}

		writeRaw(res, req, result.HTTPCode, result.Response)
	})
}

// SendMultipleMessagesHandler sends the same notification to every token.
func (prov *Provider) SendMultipleMessagesHandler() http.HandlerFunc {
	return prov.batchHandler(func(res http.ResponseWriter, req *http.Request) ([]Notification, error) {
		return NewBatchNotifications(http.MaxBytesReader(res, req.Body, MaxRequestBodySize), prov.MaxBatchSize)
	}, false)
}

// SendMultipleMessagesValHandler sends a notification rendered with each recipient's vars.
func (prov *Provider) SendMultipleMessagesValHandler() http.HandlerFunc {
	return prov.batchHandler(func(res http.ResponseWriter, req *http.Request) ([]Notification, error) {
		return NewTemplateNotifications(http.MaxBytesReader(res, req.Body, MaxRequestBodySize), prov.MaxBatchSize)
	}, true)
}

func (prov *Provider) batchHandler(parse func(http.ResponseWriter, *http.Request) ([]Notification, error), rendered bool) http.HandlerFunc {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		srvStats.countRequest()
		ctx := WithRequestUID(req.Context())

		if err := validateRequest(res, req, msgInvalidBatchParams); err != nil {
			logrus.Warn(err)
			return
		}

		ns, err := parse(res, req)
		if err != nil {
			badRequest(ctx, res, req, err)
			return
		}

		token, ok := prov.accessToken(ctx)
		if !ok {
			writeJSON(res, req, http.StatusInternalServerError, ErrorResponse{Error: msgFailedToGetToken})
			return
		}

		LogWithFields(logrus.Fields{
			"type":         "provider",
			"req_uid":      RequestUID(ctx),
			"request_size": len(ns),
		}).Debugf("Dispatching batch")

		results := prov.Dispatcher.DispatchBatch(ctx, token, ns)
		if rendered {
			for i := range results {
				title, body := ns[i].Title, ns[i].Body
				results[i].Title = &title
				results[i].Message = &body
			}
		}
		writeJSON(res, req, http.StatusOK, BatchResponse{Results: results})
	})
}

func (prov *Provider) accessToken(ctx context.Context) (string, bool) {
	token, err := prov.Tokens.Token(ctx)
	if err != nil {
		srvStats.countTokenError()
		LogWithFields(logrus.Fields{
			"type":    "token",
			"req_uid": RequestUID(ctx),
		}).Errorf("Error generating access token: %s", err)
		return "", false
	}
	return token, true
}

// StatsHandler returns the relay counters.
func (prov *Provider) StatsHandler() http.HandlerFunc {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if err := validateMethod(res, req, http.MethodGet); err != nil {
			logrus.Warn(err)
			return
		}
		writeJSON(res, req, http.StatusOK, srvStats.GetStats())
	})
}

func badRequest(ctx context.Context, res http.ResponseWriter, req *http.Request, err error) {
	LogWithFields(logrus.Fields{
		"type":    "provider",
		"req_uid": RequestUID(ctx),
	}).Warnf("bad request: %s", err)
	writeJSON(res, req, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

// validateRequest answers a non-JSON body with the route's missing-parameters message,
// since such a body carries none of the required fields.
func validateRequest(res http.ResponseWriter, req *http.Request, msg string) error {
	if err := validateMethod(res, req, http.MethodPost); err != nil {
		return err
	}
	return validateContentType(res, req, msg)
}

func validateMethod(res http.ResponseWriter, req *http.Request, method string) error {
	if req.Method != method {
		res.Header().Set("Allow", method)
		writeJSON(res, req, http.StatusMethodNotAllowed, map[string]string{"reason": "Method Not Allowed."})
		return fmt.Errorf("Method Not Allowed: %s", req.Method)
	}
	return nil
}

func validateContentType(res http.ResponseWriter, req *http.Request, msg string) error {
	c := req.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(c); err != nil || mt != ApplicationJSON {
		writeJSON(res, req, http.StatusBadRequest, ErrorResponse{Error: msg})
		return fmt.Errorf("Unsupported Media Type: %s", c)
	}
	return nil
}

func writeJSON(res http.ResponseWriter, req *http.Request, code int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		LogWithFields(logrus.Fields{"type": "provider"}).Error(err)
		code = http.StatusInternalServerError
		b = []byte(`{"reason":"Internal Server Error"}`)
	}
	writeRaw(res, req, code, b)
}

func writeRaw(res http.ResponseWriter, req *http.Request, code int, b []byte) {
	requestsTotal.WithLabelValues(req.URL.Path, strconv.Itoa(code)).Inc()
	res.Header().Set("Content-Type", ApplicationJSON)
	res.WriteHeader(code)
	res.Write(b)
}

func startSignalReciever(wg *sync.WaitGroup, srv *http.Server) {
	defer wg.Done()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGINT)
	s := <-sigChan
	LogWithFields(logrus.Fields{
		"type": "provider",
	}).Infof("Relay recieved %s signal. Stopping server now...", s)

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		LogWithFields(logrus.Fields{
			"type": "provider",
		}).Error(err)
	}
}
