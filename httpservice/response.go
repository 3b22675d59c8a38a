package httpservice

import (
	"net/http"
)

// Response is a fully read HTTP response, or a cache hit dressed as one.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte

	// RequestID is the X-Request-ID sent with the request that produced
	// this response. Empty for cache hits.
	RequestID string

	// URL is the request URL.
	URL string

	// FromCache is set when the body was served from the response cache.
	FromCache bool
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// ParseResult is the outcome of an invocation: either Content or Err.
type ParseResult[T any] struct {
	Content T
	Err     *ParseError
}

// Succeed wraps content in a successful result.
func Succeed[T any](content T) *ParseResult[T] {
	return &ParseResult[T]{Content: content}
}

// Fail wraps err in a failed result.
func Fail[T any](err *ParseError) *ParseResult[T] {
	return &ParseResult[T]{Err: err}
}

// IsSuccess reports whether the result carries content.
func (r *ParseResult[T]) IsSuccess() bool {
	return r.Err == nil
}

// Unwrap returns the content and the error as a plain error value.
func (r *ParseResult[T]) Unwrap() (T, error) {
	if r.Err != nil {
		var zero T
		return zero, r.Err
	}
	return r.Content, nil
}

func cacheHitResponse(body []byte, url string) *Response {
	return &Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Header:     make(http.Header),
		Body:       body,
		URL:        url,
		FromCache:  true,
	}
}
