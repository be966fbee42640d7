package line

import "errors"

var (
	// ErrInvalidRequest is returned when the request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnauthorized is returned when the channel access token is rejected
	ErrUnauthorized = errors.New("unauthorized: invalid channel access token")

	// ErrRateLimited is returned on HTTP 429
	ErrRateLimited = errors.New("rate limited by LINE")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")

	// ErrSendFailed is returned for any other non-2xx answer
	ErrSendFailed = errors.New("line message send failed")
)
