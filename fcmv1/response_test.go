package fcmv1

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUnmarshalResponse(t *testing.T) {
	var r ResponseBody
	if err := json.Unmarshal([]byte(buildResponseBodyJSON()), &r); err != nil {
		t.Error(err)
	}

	if diff := cmp.Diff(r, buildResponseBody()); diff != "" {
		t.Errorf("mismatch decoded payload diff: %s", diff)
	}
}

func TestResponseReason(t *testing.T) {
	cases := []struct {
		res    Response
		reason string
	}{
		{Response{StatusCode: 400, Body: []byte(buildResponseBodyJSON())}, InvalidArgument},
		{Response{StatusCode: 404, Body: []byte(`{"error":{"message":"gone"}}`)}, "gone"},
		{Response{StatusCode: 502, Body: []byte(`<html>bad gateway</html>`)}, "Bad Gateway"},
	}
	for _, c := range cases {
		if g := c.res.Reason(); g != c.reason {
			t.Errorf("unexpected reason: got %s want %s", g, c.reason)
		}
	}
}

func TestRawJSON(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{`{"name":"projects/p/messages/1"}`, `{"name":"projects/p/messages/1"}`},
		{`<html>bad gateway</html>`, `"<html>bad gateway</html>"`},
		{``, `""`},
	}
	for _, c := range cases {
		if g := string(RawJSON([]byte(c.in))); g != c.out {
			t.Errorf("unexpected raw json: got %s want %s", g, c.out)
		}
	}
}

func buildResponseBody() ResponseBody {
	return ResponseBody{
		Error: &FCMError{
			Code:    400,
			Message: "The registration token is not a valid FCM registration token",
			Status:  InvalidArgument,
			Details: []Detail{
				Detail{
					Type:      "type.googleapis.com/google.firebase.fcm.v1.FcmError",
					ErrorCode: InvalidArgument,
				},
				Detail{
					Type: "type.googleapis.com/google.rpc.BadRequest",
				},
			},
		},
	}
}

func buildResponseBodyJSON() string {
	return `{
  "error": {
    "code": 400,
    "message": "The registration token is not a valid FCM registration token",
    "status": "INVALID_ARGUMENT",
    "details": [
      {
        "@type": "type.googleapis.com/google.firebase.fcm.v1.FcmError",
        "errorCode": "INVALID_ARGUMENT"
      },
      {
        "@type": "type.googleapis.com/google.rpc.BadRequest",
        "fieldViolations": [
          {
            "field": "message.token",
            "description": "The registration token is not a valid FCM registration token"
          }
        ]
      }
    ]
  }
}`
}
