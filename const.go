package fcmrelay

import (
	"time"
)

// Version
const (
	Version = "v0.1.0"
)

// Default values
const (
	// MaxRequestBodySize is the limit of an inbound request body.
	MaxRequestBodySize = 4 << 20
	// ShutdownTimeout is the time to wait for in-flight requests when stopping.
	ShutdownTimeout = time.Second * 30
)

// Supports Content-Type
const (
	ApplicationJSON = "application/json"
)

// Routes
const (
	GenerateTokenPath           = "/generate-token-misba"
	SendSingleMessagePath       = "/send-single-message"
	SendMultipleMessagesPath    = "/send-multiple-messages"
	SendMultipleMessagesValPath = "/send-multiple-messages-val"
	StatsAppPath                = "/stats/app"
	StatsProfilePath            = "/stats/profile"
	MetricsPath                 = "/metrics"
)

// Error messages returned to clients
const (
	msgFailedToGenerateToken = "Failed to generate token"
	msgFailedToGetToken      = "Failed to get access token"
	msgFailedToSendMessage   = "Failed to send message"
	msgFailedToSend          = "Failed to send"
	msgMissingSingleParams   = "Missing required parameters: token, title, body"
	msgInvalidBatchParams    = "'tokens' must be an array and title/body are required"
)
