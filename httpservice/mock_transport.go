package httpservice

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// MockTransport is an http.RoundTripper for tests of code built on Service.
// It answers from stubs and records every request it receives.
//
// Example:
//
//	mt := httpservice.NewMockTransport().
//	    StubSequence(
//	        httpservice.MockReply{StatusCode: 503},
//	        httpservice.MockReply{StatusCode: 200, Body: `{"ok":true}`},
//	    )
//	svc := httpservice.New(resolve, parser, httpservice.WithTransport(mt))
type MockTransport struct {
	mu          sync.Mutex
	stubs       []mockStub
	sequence    []MockReply
	fallback    *MockReply
	requests    []*http.Request
	bodies      [][]byte
	requestHook func(*http.Request)
}

// MockReply is one canned answer. A non-nil Err is returned instead of a
// response.
type MockReply struct {
	StatusCode int
	Body       string
	Header     http.Header
	Err        error
}

type mockStub struct {
	matcher func(*http.Request) bool
	reply   MockReply
}

// NewMockTransport creates a MockTransport that answers 404 until stubbed.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// StubResponse answers every unmatched request with statusCode and body.
func (m *MockTransport) StubResponse(statusCode int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &MockReply{StatusCode: statusCode, Body: body}
	return m
}

// StubError fails every unmatched request with err.
func (m *MockTransport) StubError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &MockReply{Err: err}
	return m
}

// StubFunc answers requests matching the predicate with statusCode and body.
// Stubs are checked in the order they were added.
func (m *MockTransport) StubFunc(matcher func(*http.Request) bool, statusCode int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, mockStub{
		matcher: matcher,
		reply:   MockReply{StatusCode: statusCode, Body: body},
	})
	return m
}

// StubSequence answers successive requests with replies, one each, before
// falling back to the other stubs.
func (m *MockTransport) StubSequence(replies ...MockReply) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = append(m.sequence, replies...)
	return m
}

// OnRequest sets a hook called with each request before it is answered.
func (m *MockTransport) OnRequest(fn func(*http.Request)) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestHook = fn
	return m
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)
	hook := m.requestHook
	reply := m.next(req)
	m.mu.Unlock()

	if hook != nil {
		hook(req)
	}

	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	if reply.Err != nil {
		return nil, reply.Err
	}

	header := reply.Header
	if header == nil {
		header = make(http.Header)
	}

	return &http.Response{
		StatusCode: reply.StatusCode,
		Status:     http.StatusText(reply.StatusCode),
		Header:     header,
		Body:       io.NopCloser(bytes.NewBufferString(reply.Body)),
		Request:    req,
	}, nil
}

// next picks the reply for req. Callers hold m.mu.
func (m *MockTransport) next(req *http.Request) MockReply {
	if len(m.sequence) > 0 {
		reply := m.sequence[0]
		m.sequence = m.sequence[1:]
		return reply
	}

	for _, s := range m.stubs {
		if s.matcher(req) {
			return s.reply
		}
	}

	if m.fallback != nil {
		return *m.fallback
	}

	return MockReply{StatusCode: http.StatusNotFound}
}

// Requests returns the requests received so far.
func (m *MockTransport) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*http.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Bodies returns the request bodies received so far, in order.
func (m *MockTransport) Bodies() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.bodies))
	copy(out, m.bodies)
	return out
}

// RequestCount returns the number of requests received.
func (m *MockTransport) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Reset drops stubs and recorded requests.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = nil
	m.sequence = nil
	m.fallback = nil
	m.requests = nil
	m.bodies = nil
	m.requestHook = nil
}
