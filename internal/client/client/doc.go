// Package client implements the HTTP transport for the patient-document
// API: a single client with a fixed request timeout, bearer-token
// injection, 401 session eviction, and server-error normalization.
//
// The cross-cutting concerns (token, request logging) are decorators
// around the underlying http.RoundTripper; the eviction side effect is
// an emitted event other layers subscribe to, so the transport never
// reaches into session state directly.
package client
