package fcmv1

import (
	"firebase.google.com/go/messaging"
)

// Payload for fcm v1
type Payload struct {
	Message messaging.Message `json:"message"`
}

// MaxBulkRequests represents max count of request payloads in a request body.
const MaxBulkRequests = 500

// NewPayload builds a notification message for one registration token.
// image and link are left out of the payload when empty.
func NewPayload(token, title, body, image, link string) Payload {
	return Payload{
		Message: messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title:    title,
				Body:     body,
				ImageURL: image,
			},
			Webpush: &messaging.WebpushConfig{
				FcmOptions: &messaging.WebpushFcmOptions{
					Link: link,
				},
			},
		},
	}
}
