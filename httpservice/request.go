package httpservice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the id correlating send and parse log lines.
const RequestIDHeader = "X-Request-ID"

// multipartBoundaryPrefix precedes the timestamp token of a multipart boundary.
const multipartBoundaryPrefix = "---------------"

// BuildRequest turns a packed parameter into an *http.Request bound to ctx.
//
// The method is p.Method when set, otherwise POST when pack carries a body
// and GET when it does not. The URL is baseURL (or the custom URL) with the
// packed query string appended, unless the custom URL bypasses generation.
//
// A malformed URL returns an error wrapping ErrMalformedURL.
func BuildRequest(ctx context.Context, p *Parameter, baseURL string, pack *PackResult) (*http.Request, error) {
	req, _, err := newRequest(ctx, p, baseURL, pack)
	return req, err
}

// newRequest is BuildRequest that also returns the encoded body for
// diagnostics.
func newRequest(
	ctx context.Context,
	p *Parameter,
	baseURL string,
	pack *PackResult,
) (*http.Request, []byte, error) {
	rawURL := resolveURL(p, baseURL, pack.Query)
	if err := validateURL(rawURL); err != nil {
		return nil, nil, err
	}

	body, contentType, err := encodeBody(pack)
	if err != nil {
		return nil, nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, string(resolveMethod(p, pack)), rawURL, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedURL, err)
	}

	for _, h := range pack.Headers {
		req.Header.Set(h.Key, h.Value)
	}

	if body != nil {
		if p.ContentType != "" && len(pack.Multipart) == 0 {
			contentType = p.ContentType
		}
		req.Header.Set("Content-Type", contentType)
	}

	id := uuid.New().String()
	req.Header.Set(RequestIDHeader, id)

	traceRequest(zerolog.Ctx(ctx), id, req, pack)

	return req, body, nil
}

func resolveMethod(p *Parameter, pack *PackResult) Method {
	if p.Method != MethodUnspecified {
		return p.Method
	}
	if pack.HasBody() {
		return MethodPost
	}
	return MethodGet
}

func resolveURL(p *Parameter, baseURL, query string) string {
	u := p.Options.URL
	switch {
	case u.CustomURL == "":
		return appendQuery(baseURL, query)
	case u.BypassAutoGenerate:
		return u.CustomURL
	default:
		return appendQuery(u.CustomURL, query)
	}
}

func appendQuery(base, query string) string {
	if query == "" {
		return base
	}

	switch {
	case !strings.Contains(base, "?"):
		return base + "?" + query
	case strings.HasSuffix(base, "?"), strings.HasSuffix(base, "&"):
		return base + query
	default:
		return base + "&" + query
	}
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q has no scheme or host", ErrMalformedURL, raw)
	}
	return nil
}

// encodeBody picks the body slot by precedence:
// multipart, raw string, raw bytes, form.
func encodeBody(pack *PackResult) ([]byte, string, error) {
	switch {
	case len(pack.Multipart) > 0:
		return encodeMultipart(pack.Multipart)
	case len(pack.RawStrings) > 0:
		return []byte(strings.Join(pack.RawStrings, "")), contentTypeText, nil
	case pack.RawBytes != nil:
		return pack.RawBytes, contentTypeOctetStream, nil
	case len(pack.Form) > 0:
		return []byte(encodeForm(pack.Form)), contentTypeForm, nil
	default:
		return nil, "", nil
	}
}

// encodeForm joins k=v pairs with '&', escaping values only.
func encodeForm(form Pairs) string {
	var sb strings.Builder
	for i, p := range form {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(p.Key)
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(items []MultipartItem) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	boundary := multipartBoundaryPrefix + strconv.FormatInt(time.Now().UnixNano(), 16)
	if err := w.SetBoundary(boundary); err != nil {
		return nil, "", err
	}

	for _, item := range items {
		disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(item.Name))
		if item.FileName != "" {
			disposition += fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(item.FileName))
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", disposition)
		h.Set("Content-Type", item.ContentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(item.Content); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}
