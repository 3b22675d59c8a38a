package httpservice

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// CurlCommand renders req as an equivalent cURL command line.
//
// Example output:
//
//	curl -X POST 'https://api.example.com/login' \
//	  -H 'Content-Type: application/x-www-form-urlencoded' \
//	  -d 'userid=abc&password=p%40ss'
func CurlCommand(req *http.Request, body []byte) string {
	parts := []string{"curl"}

	if req.Method != http.MethodGet {
		parts = append(parts, "-X", req.Method)
	}

	parts = append(parts, fmt.Sprintf("'%s'", req.URL.String()))

	keys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range req.Header[k] {
			parts = append(parts, "-H", fmt.Sprintf("'%s: %s'", k, v))
		}
	}

	if len(body) > 0 {
		escaped := strings.ReplaceAll(string(body), "'", "'\\''")
		parts = append(parts, "-d", fmt.Sprintf("'%s'", escaped))
	}

	return strings.Join(parts, " ")
}

// traceRequest writes the request line, headers and textual bodies at trace
// level. Binary and multipart bodies are summarized by size.
func traceRequest(logger *zerolog.Logger, id string, req *http.Request, pack *PackResult) {
	if logger.GetLevel() > zerolog.TraceLevel {
		return
	}

	logger.Trace().
		Str("request_id", id).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("request url")

	for k, vs := range req.Header {
		for _, v := range vs {
			logger.Trace().Str("request_id", id).Str("header", k).Str("value", v).Msg("request header")
		}
	}

	switch {
	case len(pack.Multipart) > 0:
		for _, item := range pack.Multipart {
			logger.Trace().
				Str("request_id", id).
				Str("part", item.Name).
				Str("content_type", item.ContentType).
				Int("size", len(item.Content)).
				Msg("request multipart")
		}
	case len(pack.RawStrings) > 0:
		logger.Trace().Str("request_id", id).Str("body", strings.Join(pack.RawStrings, "")).Msg("request content")
	case pack.RawBytes != nil:
		logger.Trace().Str("request_id", id).Int("size", len(pack.RawBytes)).Msg("request content")
	case len(pack.Form) > 0:
		logger.Trace().Str("request_id", id).Str("body", encodeForm(pack.Form)).Msg("request content")
	}
}

// traceResponse writes the outcome of one attempt at debug level.
func traceResponse(logger *zerolog.Logger, resp *Response, attempt int) {
	logger.Debug().
		Str("request_id", resp.RequestID).
		Int("attempt", attempt).
		Int("status", resp.StatusCode).
		Int("size", len(resp.Body)).
		Msg("response received")
}
