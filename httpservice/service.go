package httpservice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kroma-labs/invoker/cache"
)

// URLResolver returns the base URL of a call, before the query string is
// appended.
type URLResolver[P any] func(p P) string

// Service invokes one remote endpoint. P is the parameter type, T the
// parsed content type.
//
// A Service is safe for concurrent use; each Invoke is independent and has
// at most one request in flight.
//
// Example:
//
//	type SearchParams struct {
//	    httpservice.Parameter
//	    Query string
//	}
//
//	func (p *SearchParams) Fields() []httpservice.Field {
//	    return []httpservice.Field{httpservice.Query("q", p.Query)}
//	}
//
//	svc := httpservice.New(
//	    func(*SearchParams) string { return "https://api.example.com/search" },
//	    httpservice.NewJSONParser[SearchResult](),
//	    httpservice.WithServiceName("search"),
//	)
//
//	res := svc.Invoke(ctx, &SearchParams{Query: "golang"})
//	if !res.IsSuccess() {
//	    return res.Err
//	}
type Service[P Params, T any] struct {
	resolve URLResolver[P]
	parser  Parser[T]
	cfg     *config
	sender  *sender

	mu    sync.RWMutex
	hooks []Hook[P]
}

// New creates a Service. It panics if resolve or parser is nil.
func New[P Params, T any](resolve URLResolver[P], parser Parser[T], opts ...Option) *Service[P, T] {
	if resolve == nil {
		panic("httpservice: nil URL resolver")
	}
	if parser == nil {
		panic("httpservice: nil parser")
	}

	cfg := newConfig(opts...)

	return &Service[P, T]{
		resolve: resolve,
		parser:  parser,
		cfg:     cfg,
		sender:  newSender(cfg),
	}
}

// Use appends pre-process hooks. Hooks run in the order they were added,
// once per Invoke.
func (s *Service[P, T]) Use(hooks ...Hook[P]) *Service[P, T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Hook[P], 0, len(s.hooks)+len(hooks))
	next = append(next, s.hooks...)
	next = append(next, hooks...)
	s.hooks = next

	return s
}

// Invoke runs the call described by p and returns its parsed outcome.
//
// Calls that enable the cache are served from it when a fresh entry exists,
// and fall back to the remote endpoint otherwise. Failures are reported in
// the result, never as a panic; p must not be nil.
func (s *Service[P, T]) Invoke(ctx context.Context, p P) *ParseResult[T] {
	start := time.Now()
	attrs := s.cfg.baseAttributes()

	if s.cfg.logger.GetLevel() != zerolog.Disabled {
		ctx = s.cfg.logger.WithContext(ctx)
	}
	ctx, span := s.cfg.tracer.Start(ctx, "httpservice.Invoke",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	var res *ParseResult[T]
	if p.Param().Options.Cache.Active() {
		res = s.cacheInvoke(ctx, p)
	} else {
		res = s.remoteInvoke(ctx, p)
	}

	outcome := "success"
	if res.Err != nil {
		outcome = res.Err.Kind.String()
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Message)
		if res.Err.StatusCode != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", res.Err.StatusCode))
		}
	}
	span.SetAttributes(attribute.String("httpservice.outcome", outcome))
	s.cfg.metrics.recordInvocation(ctx, attrs, outcome, time.Since(start))

	return res
}

func (s *Service[P, T]) cacheInvoke(ctx context.Context, p P) *ParseResult[T] {
	c, perr := s.prepare(ctx, p)
	if perr != nil {
		return Fail[T](perr)
	}

	policy := c.param.Options.Cache
	key := s.fingerprint(c)
	span := trace.SpanFromContext(ctx)

	body, hit := s.cfg.cache.Get(ctx, key, policy.TTL())
	s.cfg.metrics.recordCacheLookup(ctx, s.cfg.baseAttributes(), hit)

	if hit {
		zerolog.Ctx(ctx).Debug().Str("key", key).Msg("serving response from cache")
		span.AddEvent("cache.hit", trace.WithAttributes(attribute.String("cache.key", key)))
		return s.parse(ctx, cacheHitResponse(body, c.baseURL))
	}

	span.AddEvent("cache.miss", trace.WithAttributes(attribute.String("cache.key", key)))

	if !s.cfg.probe.IsAvailable(ctx) {
		return Fail[T](cancelledError(ErrNetworkUnavailable))
	}

	return s.dispatch(ctx, c, key)
}

func (s *Service[P, T]) remoteInvoke(ctx context.Context, p P) *ParseResult[T] {
	if !s.cfg.probe.IsAvailable(ctx) {
		return Fail[T](cancelledError(ErrNetworkUnavailable))
	}

	c, perr := s.prepare(ctx, p)
	if perr != nil {
		return Fail[T](perr)
	}

	return s.dispatch(ctx, c, "")
}

// prepare runs the hooks, then packs the parameter.
func (s *Service[P, T]) prepare(ctx context.Context, p P) (*call, *ParseError) {
	s.mu.RLock()
	hooks := s.hooks
	s.mu.RUnlock()

	for i, h := range hooks {
		if err := h.Process(ctx, p); err != nil {
			if ctx.Err() != nil {
				return nil, cancelledError(context.Cause(ctx))
			}
			return nil, newParseError(KindHook, fmt.Errorf("hook %d: %w", i, err))
		}
	}

	pack, err := Pack(p)
	if err != nil {
		return nil, newParseError(KindBuild, err)
	}

	param := p.Param()
	baseURL := s.resolve(p)
	if param.Options.URL.CustomURL != "" {
		baseURL = param.Options.URL.CustomURL
	}

	return &call{param: param, pack: pack, baseURL: baseURL}, nil
}

// dispatch sends the call, stores a successful body under key when key is
// set, and parses the response.
func (s *Service[P, T]) dispatch(ctx context.Context, c *call, key string) *ParseResult[T] {
	resp, perr := s.sender.send(ctx, c)
	if perr != nil {
		return Fail[T](perr)
	}

	if err := ctx.Err(); err != nil {
		return Fail[T](cancelledError(context.Cause(ctx)))
	}

	if key != "" && resp.IsSuccess() {
		s.cfg.cache.Set(ctx, key, resp.Body)
	}

	return s.parse(ctx, resp)
}

// parse runs the parser and discards its result if the call was cancelled
// meanwhile.
func (s *Service[P, T]) parse(ctx context.Context, resp *Response) *ParseResult[T] {
	res := s.parser.Parse(ctx, resp)
	if res == nil {
		res = Fail[T](newParseError(KindDecode, fmt.Errorf("parser returned no result")))
	}

	if ctx.Err() != nil {
		return Fail[T](cancelledError(context.Cause(ctx)))
	}

	return res
}

func (s *Service[P, T]) fingerprint(c *call) string {
	return cache.Fingerprint(s.cfg.hasher, c.pack.Query, c.pack.formPairs(), c.baseURL)
}
