package common

const (
	// TokenQueryParam is the query parameter the guard inspects first.
	TokenQueryParam = "token"

	// AuthorizationHeaderName carries "Bearer <token>".
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the only accepted Authorization scheme.
	BearerScheme = "Bearer"

	// RequestIDHeaderName is echoed back on every HTTP response.
	RequestIDHeaderName = "X-Request-ID"
)
