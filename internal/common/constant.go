package common

const (
	// AuthHeaderName is the HTTP header carrying the bearer credential.
	AuthHeaderName = "Authorization"

	// BearerPrefix prefixes the token value inside AuthHeaderName.
	BearerPrefix = "Bearer "
)
