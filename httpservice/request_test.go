package httpservice

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFor(t *testing.T, p *fieldParams, baseURL string) (*http.Request, []byte) {
	t.Helper()

	pack, err := Pack(p)
	require.NoError(t, err)

	req, err := BuildRequest(context.Background(), p.Param(), baseURL, pack)
	require.NoError(t, err)

	var body []byte
	if req.Body != nil {
		body, err = io.ReadAll(req.Body)
		require.NoError(t, err)
	}

	return req, body
}

func TestBuildRequest_QueryOnlyGet(t *testing.T) {
	req, body := buildFor(t, params(Query("q", "foo")), "http://x/")

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "http://x/?q=foo", req.URL.String())
	assert.Empty(t, body)
	assert.Empty(t, req.Header.Get("Content-Type"))
}

func TestBuildRequest_FormPost(t *testing.T) {
	req, body := buildFor(t, params(Form("userid", "abc"), Form("password", "p@ss")), "http://x/login")

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "userid=abc&password=p%40ss", string(body))
	assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
}

func TestBuildRequest_MethodInference(t *testing.T) {
	tests := []struct {
		name   string
		method Method
		fields []Field
		want   string
	}{
		{
			name: "given no body, then infers GET",
			want: http.MethodGet,
		},
		{
			name:   "given only query and header fields, then infers GET",
			fields: []Field{Query("q", "1"), Header("X-A", "1")},
			want:   http.MethodGet,
		},
		{
			name:   "given form field, then infers POST",
			fields: []Field{Form("a", "1")},
			want:   http.MethodPost,
		},
		{
			name:   "given multipart field, then infers POST",
			fields: []Field{MultipartJSON("m", `{}`)},
			want:   http.MethodPost,
		},
		{
			name:   "given raw string field, then infers POST",
			fields: []Field{RawString("x")},
			want:   http.MethodPost,
		},
		{
			name:   "given raw bytes field, then infers POST",
			fields: []Field{RawBytes([]byte{})},
			want:   http.MethodPost,
		},
		{
			name:   "given explicit PUT with form body, then keeps PUT",
			method: MethodPut,
			fields: []Field{Form("a", "1")},
			want:   http.MethodPut,
		},
		{
			name:   "given explicit DELETE without body, then keeps DELETE",
			method: MethodDelete,
			want:   http.MethodDelete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := params(tt.fields...)
			p.Method = tt.method

			req, _ := buildFor(t, p, "http://x/")
			assert.Equal(t, tt.want, req.Method)
		})
	}
}

func TestBuildRequest_URLResolution(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		urlOpts URLOptions
		fields  []Field
		want    string
	}{
		{
			name:    "given no query, then uses base url",
			baseURL: "http://x/api",
			want:    "http://x/api",
		},
		{
			name:    "given base with query, then appends with ampersand",
			baseURL: "http://x/api?v=1",
			fields:  []Field{Query("q", "a")},
			want:    "http://x/api?v=1&q=a",
		},
		{
			name:    "given base ending with question mark, then appends directly",
			baseURL: "http://x/api?",
			fields:  []Field{Query("q", "a")},
			want:    "http://x/api?q=a",
		},
		{
			name:    "given custom url, then combines it with query",
			baseURL: "http://x/api",
			urlOpts: URLOptions{CustomURL: "http://y/other"},
			fields:  []Field{Query("q", "a")},
			want:    "http://y/other?q=a",
		},
		{
			name:    "given custom url with bypass, then uses it verbatim",
			baseURL: "http://x/api",
			urlOpts: URLOptions{CustomURL: "http://y/fixed?k=v", BypassAutoGenerate: true},
			fields:  []Field{Query("q", "a")},
			want:    "http://y/fixed?k=v",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := params(tt.fields...)
			p.Options.URL = tt.urlOpts

			req, _ := buildFor(t, p, tt.baseURL)
			assert.Equal(t, tt.want, req.URL.String())
		})
	}
}

func TestBuildRequest_MalformedURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{name: "given relative url, then fails", baseURL: "/just/a/path"},
		{name: "given missing scheme, then fails", baseURL: "example.com/path"},
		{name: "given invalid escape, then fails", baseURL: "http://x/%zz"},
		{name: "given empty url, then fails", baseURL: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := params()
			pack, err := Pack(p)
			require.NoError(t, err)

			_, err = BuildRequest(context.Background(), p.Param(), tt.baseURL, pack)
			assert.ErrorIs(t, err, ErrMalformedURL)
		})
	}
}

func TestBuildRequest_BodyPrecedence(t *testing.T) {
	tests := []struct {
		name            string
		fields          []Field
		wantBody        string
		wantContentType string
	}{
		{
			name:            "given raw string and form, then raw string wins",
			fields:          []Field{Form("a", "1"), RawString("foo"), RawString("bar")},
			wantBody:        "foobar",
			wantContentType: "text/plain; charset=utf-8",
		},
		{
			name:            "given raw bytes and form, then raw bytes win",
			fields:          []Field{Form("a", "1"), RawBytes([]byte("bin"))},
			wantBody:        "bin",
			wantContentType: "application/octet-stream",
		},
		{
			name:            "given raw string and raw bytes, then raw string wins",
			fields:          []Field{RawBytes([]byte("bin")), RawString("txt")},
			wantBody:        "txt",
			wantContentType: "text/plain; charset=utf-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, body := buildFor(t, params(tt.fields...), "http://x/")

			assert.Equal(t, tt.wantBody, string(body))
			assert.Equal(t, tt.wantContentType, req.Header.Get("Content-Type"))
		})
	}
}

func TestBuildRequest_Multipart(t *testing.T) {
	p := params(
		Form("ignored", "1"),
		RawString("ignored too"),
		MultipartJSON("meta", `{"a":1}`),
		MultipartFile("file", "photo.jpg", []byte("jpegdata")),
	)

	req, body := buildFor(t, p, "http://x/upload")

	mediaType, mparams, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	assert.True(t, strings.HasPrefix(mparams["boundary"], "---------------"))

	reader := multipart.NewReader(strings.NewReader(string(body)), mparams["boundary"])

	part, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "meta", part.FormName())
	assert.Empty(t, part.FileName())
	assert.Equal(t, "application/json", part.Header.Get("Content-Type"))
	content, _ := io.ReadAll(part)
	assert.Equal(t, `{"a":1}`, string(content))

	part, err = reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "file", part.FormName())
	assert.Equal(t, "photo.jpg", part.FileName())
	assert.Equal(t, "image/jpeg", part.Header.Get("Content-Type"))
	content, _ = io.ReadAll(part)
	assert.Equal(t, "jpegdata", string(content))

	_, err = reader.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestBuildRequest_ContentTypeOverride(t *testing.T) {
	t.Run("given override with raw string body, then replaces content type", func(t *testing.T) {
		p := params(RawString(`{"a":1}`))
		p.ContentType = "application/json"

		req, _ := buildFor(t, p, "http://x/")
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	})

	t.Run("given override without body, then sets no content type", func(t *testing.T) {
		p := params(Query("q", "1"))
		p.ContentType = "application/json"

		req, _ := buildFor(t, p, "http://x/")
		assert.Empty(t, req.Header.Get("Content-Type"))
	})

	t.Run("given override with multipart body, then keeps boundary", func(t *testing.T) {
		p := params(MultipartJSON("m", `{}`))
		p.ContentType = "application/json"

		req, _ := buildFor(t, p, "http://x/")
		assert.True(t, strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data; boundary="))
	})
}

func TestBuildRequest_Headers(t *testing.T) {
	first, _ := buildFor(t, params(Header("Authorization", "Bearer t")), "http://x/")
	second, _ := buildFor(t, params(Header("Authorization", "Bearer t")), "http://x/")

	assert.Equal(t, "Bearer t", first.Header.Get("Authorization"))

	id := first.Header.Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, second.Header.Get(RequestIDHeader))
}

func TestCurlCommand(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "http://x/login", nil)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	got := CurlCommand(req, []byte("name=o'neil"))

	assert.Equal(t,
		`curl -X POST 'http://x/login' -H 'Accept: application/json' `+
			`-H 'Content-Type: application/x-www-form-urlencoded' -d 'name=o'\''neil'`,
		got,
	)
}
