// Package httpservice turns declaratively bound parameter objects into HTTP
// calls and typed results.
//
// A call flows through fixed stages:
//
//	hooks -> Pack -> BuildRequest -> send (+retry) -> cache write -> Parser
//
// Calls that enable the cache look up a fresh entry first and skip the
// network on a hit.
//
// # Parameters
//
// A parameter type embeds Parameter for its call policy and lists its field
// bindings in Fields:
//
//	type LoginParams struct {
//	    httpservice.Parameter
//	    UserID   string
//	    Password string
//	    Since    time.Time
//	}
//
//	func (p *LoginParams) Fields() []httpservice.Field {
//	    return []httpservice.Field{
//	        httpservice.Query("since", p.Since).WithConverter(httpservice.TimeLayout("2006/01/02")),
//	        httpservice.Form("userid", p.UserID),
//	        httpservice.Form("password", p.Password),
//	    }
//	}
//
// Without an explicit Method, a call with any body is sent as POST and
// every other call as GET. Body slots are exclusive, with precedence
// multipart, raw string, raw bytes, form.
//
// # Outcomes
//
// Invoke never returns an error value. Every failure is a *ParseError in the
// result, categorized by ErrorKind:
//
//   - KindBuild, KindHook: the call could not be prepared
//   - KindNetwork, KindTimeout: the last attempt failed in transport
//   - KindCancelled: the caller cancelled, or the network probe said offline
//   - KindStatus: the last response was not 2xx
//   - KindEmpty, KindDecode: the body could not be turned into content
//
// # Retries and Timeouts
//
// Options.Retry sets how many extra attempts follow a failed one and the
// fixed interval between them. Non-2xx responses, transport errors and
// attempt timeouts are retried; cancellation and build errors are not.
// Each attempt has its own deadline (Parameter.Timeout, default 100s),
// independent of the caller's context.
//
// # Observability
//
// Every Invoke opens an OpenTelemetry span and records the metrics
// httpservice.invocations, httpservice.invoke.duration,
// httpservice.send.attempts, httpservice.retry.exhausted,
// httpservice.cache.lookups and httpservice.breaker.requests. Logging goes
// through zerolog: request lines at trace level, attempt outcomes at debug.
package httpservice
