package httpservice

import (
	"net/http"
	"time"
)

// Method is the HTTP method of a call. MethodUnspecified lets the request
// builder infer GET or POST from the packed body.
type Method string

const (
	MethodUnspecified Method = ""
	MethodGet         Method = http.MethodGet
	MethodPost        Method = http.MethodPost
	MethodPut         Method = http.MethodPut
	MethodPatch       Method = http.MethodPatch
	MethodDelete      Method = http.MethodDelete
	MethodHead        Method = http.MethodHead
	MethodOptions     Method = http.MethodOptions
)

const (
	// DefaultTimeout is the per-attempt deadline used when neither the
	// parameter nor the service sets one.
	DefaultTimeout = 100 * time.Second

	// DefaultRetryInterval is the pause between attempts.
	DefaultRetryInterval = 15 * time.Second

	// DefaultCacheMinutes is the TTL applied by Options.EnableCache(0).
	DefaultCacheMinutes = 10
)

// Parameter holds the call-level policy of one invocation. Caller parameter
// types embed it and add their payload fields:
//
//	type SearchParams struct {
//	    httpservice.Parameter
//	    Query string
//	}
//
//	func (p *SearchParams) Fields() []httpservice.Field {
//	    return []httpservice.Field{
//	        httpservice.Query("q", p.Query),
//	    }
//	}
type Parameter struct {
	// Method overrides method inference.
	Method Method

	// ContentType overrides the Content-Type of the request body.
	// Ignored for multipart bodies, which need their boundary parameter.
	ContentType string

	// Timeout is the deadline of a single attempt.
	// Zero uses the service default.
	Timeout time.Duration

	Options Options
}

// Param returns p. It lets any type embedding Parameter satisfy Params.
func (p *Parameter) Param() *Parameter {
	return p
}

// Params is implemented by every parameter type accepted by a Service.
type Params interface {
	// Param returns the embedded call policy.
	Param() *Parameter

	// Fields returns the field bindings in declaration order.
	Fields() []Field
}

// Options groups URL, cache and retry policy.
type Options struct {
	URL   URLOptions
	Cache CacheOptions
	Retry RetryOptions
}

// URLOptions overrides the URL produced by the service's resolver.
type URLOptions struct {
	// CustomURL replaces the resolved base URL.
	CustomURL string

	// BypassAutoGenerate sends CustomURL verbatim, without appending the
	// packed query string.
	BypassAutoGenerate bool
}

// CacheOptions enables the local response cache for a call.
type CacheOptions struct {
	Enabled bool

	// Minutes is the entry TTL. A non-positive value disables the cache
	// even when Enabled is set.
	Minutes int
}

// Active reports whether the call should consult the cache.
func (c CacheOptions) Active() bool {
	return c.Enabled && c.Minutes > 0
}

// TTL returns Minutes as a duration.
func (c CacheOptions) TTL() time.Duration {
	return time.Duration(c.Minutes) * time.Minute
}

// RetryOptions controls the retry loop of the transport.
type RetryOptions struct {
	// MaxRetryTimes is the number of attempts after the first one.
	MaxRetryTimes int

	// Interval is the fixed pause between attempts. Zero uses
	// DefaultRetryInterval.
	Interval time.Duration
}

// DefaultOptions returns the policy used by calls that do not set one:
// no cache, no retry, and DefaultRetryInterval between attempts once
// retries are enabled.
func DefaultOptions() Options {
	return Options{
		Cache: CacheOptions{Minutes: DefaultCacheMinutes},
		Retry: RetryOptions{Interval: DefaultRetryInterval},
	}
}

// EnableCache turns the cache on with a TTL of minutes.
// A non-positive value uses DefaultCacheMinutes.
func (o *Options) EnableCache(minutes int) {
	if minutes <= 0 {
		minutes = DefaultCacheMinutes
	}
	o.Cache = CacheOptions{Enabled: true, Minutes: minutes}
}
