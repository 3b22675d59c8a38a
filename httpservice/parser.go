package httpservice

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Parser turns a response into a typed result.
type Parser[T any] interface {
	Parse(ctx context.Context, resp *Response) *ParseResult[T]
}

// ParserFunc adapts a function to Parser.
type ParserFunc[T any] func(ctx context.Context, resp *Response) *ParseResult[T]

// Parse implements Parser.
func (f ParserFunc[T]) Parse(ctx context.Context, resp *Response) *ParseResult[T] {
	return f(ctx, resp)
}

// Codec serializes values for JSON bodies and responses.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type goccyCodec struct{}

func (goccyCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (goccyCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// DefaultCodec is backed by github.com/goccy/go-json.
var DefaultCodec Codec = goccyCodec{}

// Decrypter turns an encrypted body into plaintext before decoding.
type Decrypter interface {
	Decrypt(ctx context.Context, body []byte) ([]byte, error)
}

// DecrypterFunc adapts a function to Decrypter.
type DecrypterFunc func(ctx context.Context, body []byte) ([]byte, error)

// Decrypt implements Decrypter.
func (f DecrypterFunc) Decrypt(ctx context.Context, body []byte) ([]byte, error) {
	return f(ctx, body)
}

// CheckResponse applies the checks shared by all parsers: a response must
// exist, carry a 2xx status and have a body. The failure is logged with the
// request id of the response.
func CheckResponse(ctx context.Context, resp *Response) *ParseError {
	logger := zerolog.Ctx(ctx)

	if resp == nil {
		return newParseError(KindNetwork, ErrRequestFailed)
	}

	if !resp.IsSuccess() {
		logger.Error().
			Str("request_id", resp.RequestID).
			Int("status", resp.StatusCode).
			Str("url", resp.URL).
			Msg("request returned non-success status")
		return &ParseError{
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Message:    statusText(resp),
		}
	}

	if len(resp.Body) == 0 {
		logger.Error().
			Str("request_id", resp.RequestID).
			Str("url", resp.URL).
			Msg("response content is empty")
		return &ParseError{
			Kind:       KindEmpty,
			StatusCode: resp.StatusCode,
			Message:    ErrEmptyContent.Error(),
			Err:        ErrEmptyContent,
		}
	}

	return nil
}

// JSONParser decodes a JSON body into T.
type JSONParser[T any] struct {
	codec     Codec
	decrypter Decrypter
}

// JSONParserOption configures a JSONParser.
type JSONParserOption func(*jsonParserConfig)

type jsonParserConfig struct {
	codec     Codec
	decrypter Decrypter
}

// WithJSONCodec replaces DefaultCodec.
func WithJSONCodec(c Codec) JSONParserOption {
	return func(cfg *jsonParserConfig) {
		if c != nil {
			cfg.codec = c
		}
	}
}

// WithDecrypter decrypts the body before decoding.
func WithDecrypter(d Decrypter) JSONParserOption {
	return func(cfg *jsonParserConfig) {
		cfg.decrypter = d
	}
}

// NewJSONParser creates a JSONParser for T.
func NewJSONParser[T any](opts ...JSONParserOption) *JSONParser[T] {
	cfg := jsonParserConfig{codec: DefaultCodec}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &JSONParser[T]{codec: cfg.codec, decrypter: cfg.decrypter}
}

// Parse implements Parser.
func (p *JSONParser[T]) Parse(ctx context.Context, resp *Response) *ParseResult[T] {
	if perr := CheckResponse(ctx, resp); perr != nil {
		return Fail[T](perr)
	}

	body := resp.Body
	if p.decrypter != nil {
		plain, err := p.decrypter.Decrypt(ctx, body)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("request_id", resp.RequestID).Msg("decrypt failed")
			return Fail[T](&ParseError{
				Kind:       KindDecode,
				StatusCode: resp.StatusCode,
				Message:    ErrDecrypt.Error(),
				Err:        fmt.Errorf("%w: %w", ErrDecrypt, err),
			})
		}
		body = plain
	}

	var content T
	if err := p.codec.Unmarshal(body, &content); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("request_id", resp.RequestID).Msg("decode failed")
		return Fail[T](&ParseError{
			Kind:       KindDecode,
			StatusCode: resp.StatusCode,
			Message:    err.Error(),
			Err:        err,
		})
	}

	return Succeed(content)
}

// StringParser returns the body as text.
type StringParser struct{}

// Parse implements Parser.
func (StringParser) Parse(ctx context.Context, resp *Response) *ParseResult[string] {
	if perr := CheckResponse(ctx, resp); perr != nil {
		return Fail[string](perr)
	}
	return Succeed(string(resp.Body))
}

func statusText(resp *Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
