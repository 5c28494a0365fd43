package types

const (
	HeaderAuthorization    = "Authorization"
	HeaderAPIKey           = "x-api-key"
	HeaderRequestID        = "X-Request-ID"
	HeaderIdempotencyKey   = "Idempotency-Key"
	HeaderIdempotentReplay = "Idempotent-Replayed"
)
