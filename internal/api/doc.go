// Package api is the HTTP+JSON boundary to the social service.
//
// Every call carries the session cookie from the client's jar, a JSON
// content type, and an X-Request-ID for log correlation. Non-2xx responses
// and transport failures are normalized into *Error, whose Kind tells
// callers whether to degrade silently (reads) or surface a message (writes).
//
// The server names its human-readable error field either "message" or
// "error" depending on the endpoint; both are recognized.
package api
