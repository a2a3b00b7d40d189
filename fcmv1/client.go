package fcmv1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"
)

// fcm v1 Client const variables
const (
	DefaultFCMEndpointFmt = "https://fcm.googleapis.com/v1/projects/%s/messages:send"
	Scope                 = "https://www.googleapis.com/auth/firebase.messaging"
	ClientTimeout         = time.Second * 10
)

// Client is FCM v1 client
type Client struct {
	endpoint *url.URL
	Client   *http.Client
}

// Send posts a payload to fcm with the given access token.
// A non-2xx reply returns both the Response and an Error carrying its status and body.
func (c *Client) Send(ctx context.Context, accessToken string, p Payload) (*Response, error) {
	req, err := c.NewRequest(ctx, accessToken, p)
	if err != nil {
		return nil, err
	}

	res, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, NewError(res.StatusCode, err.Error(), nil)
	}

	r := &Response{
		StatusCode: res.StatusCode,
		Token:      p.Message.Token,
		Body:       body,
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return r, NewError(res.StatusCode, r.Reason(), body)
	}
	return r, nil
}

// NewRequest creates request for fcm
func (c *Client) NewRequest(ctx context.Context, accessToken string, p Payload) (*http.Request, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

// Endpoint returns the messages:send URL the client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// NewClient creates a client for the project. A nil endpoint means the production fcm v1 endpoint.
func NewClient(projectID string, endpoint *url.URL, timeout time.Duration) (*Client, error) {
	if projectID == "" && endpoint == nil {
		return nil, fmt.Errorf("project_id is not defined")
	}

	c := &Client{
		Client: &http.Client{
			Timeout: timeout,
		},
	}

	if endpoint != nil {
		c.endpoint = endpoint
	} else {
		ep, err := url.Parse(fmt.Sprintf(DefaultFCMEndpointFmt, url.PathEscape(projectID)))
		if err != nil {
			return nil, err
		}
		c.endpoint = ep
	}

	return c, nil
}
