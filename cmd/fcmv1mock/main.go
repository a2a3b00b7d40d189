package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/kayac/fcmrelay/mock"
)

func main() {
	var (
		port        int
		projectID   string
		accessToken string
		latency     time.Duration
		verbose     bool
	)

	flag.IntVar(&port, "port", 8888, "fcmv1 mock server port")
	flag.StringVar(&projectID, "project-id", "test", "fcmv1 mock project id")
	flag.StringVar(&accessToken, "access-token", "mock-access-token", "access token issued by /token")
	flag.DurationVar(&latency, "latency", 0, "response time of each send")
	flag.BoolVar(&verbose, "verbose", false, "verbose flag")
	flag.Parse()

	m := mock.FCMv1MockServer(projectID, verbose)
	m.Latency = latency

	mux := http.NewServeMux()
	mux.Handle(m.Path(), m)
	mux.Handle("/token", &mock.TokenServer{AccessToken: accessToken})

	log.Println("fcmv1 mock server path:", m.Path())
	log.Println("start fcmv1mock server port:", port, "project_id:", projectID)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
		log.Fatal(err)
	}
}
