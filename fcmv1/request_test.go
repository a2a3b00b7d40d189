package fcmv1

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMarshalPayload(t *testing.T) {
	p := NewPayload("testToken", "message_title", "message_body", "https://example.com/notification.png", "https://example.com/open")
	output, err := json.Marshal(p)
	if err != nil {
		t.Error(err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(output, &got); err != nil {
		t.Fatal(err)
	}
	expected := map[string]interface{}{
		"message": map[string]interface{}{
			"token": "testToken",
			"notification": map[string]interface{}{
				"title": "message_title",
				"body":  "message_body",
				"image": "https://example.com/notification.png",
			},
			"webpush": map[string]interface{}{
				"fcm_options": map[string]interface{}{
					"link": "https://example.com/open",
				},
			},
		},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("mismatch encoded payload: diff: %s", diff)
	}
}

func TestMarshalPayloadOmitsOptionalFields(t *testing.T) {
	p := NewPayload("testToken", "message_title", "message_body", "", "")
	output, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}

	var got struct {
		Message struct {
			Notification map[string]interface{} `json:"notification"`
			Webpush      struct {
				FcmOptions map[string]interface{} `json:"fcm_options"`
			} `json:"webpush"`
		} `json:"message"`
	}
	if err := json.Unmarshal(output, &got); err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Message.Notification["image"]; ok {
		t.Errorf("image should be omitted: %s", output)
	}
	if _, ok := got.Message.Webpush.FcmOptions["link"]; ok {
		t.Errorf("link should be omitted: %s", output)
	}
}

func TestUnmarshalPayload(t *testing.T) {
	var p Payload
	src := `{
  "message": {
    "token": "testToken",
    "notification": {
      "title": "message_title",
      "body": "message_body",
      "image": "https://example.com/notification.png"
    },
    "webpush": {"fcm_options": {"link": "https://example.com/open"}}
  }
}`
	if err := json.Unmarshal([]byte(src), &p); err != nil {
		t.Fatal(err)
	}

	expected := NewPayload("testToken", "message_title", "message_body", "https://example.com/notification.png", "https://example.com/open")
	if diff := cmp.Diff(expected, p); diff != "" {
		t.Errorf("mismatch decoded payload: diff: %s", diff)
	}
}
