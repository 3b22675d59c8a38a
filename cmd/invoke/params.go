package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kroma-labs/invoker/httpservice"
)

// callParams is the parameter object of a call built from a CallFile.
type callParams struct {
	httpservice.Parameter
	fields []httpservice.Field
}

func (p *callParams) Fields() []httpservice.Field { return p.fields }

// setHeader replaces the header field name, or appends it.
func (p *callParams) setHeader(name, value string) {
	for i, f := range p.fields {
		if f.Binding == httpservice.BindHeader && strings.EqualFold(f.Name, name) {
			p.fields[i] = httpservice.Header(name, value)
			return
		}
	}
	p.fields = append(p.fields, httpservice.Header(name, value))
}

// Params builds a fresh parameter object. Every Invoke gets its own so
// hooks can modify it freely.
func (cf *CallFile) Params() (*callParams, error) {
	p := &callParams{
		Parameter: httpservice.Parameter{
			Method:      httpservice.Method(strings.ToUpper(cf.Method)),
			ContentType: cf.ContentType,
			Timeout:     time.Duration(cf.Timeout),
			Options:     httpservice.DefaultOptions(),
		},
	}

	p.Options.URL = httpservice.URLOptions{CustomURL: cf.CustomURL, BypassAutoGenerate: cf.Bypass}
	p.Options.Retry.MaxRetryTimes = cf.Retry.Max
	if cf.Retry.Interval > 0 {
		p.Options.Retry.Interval = time.Duration(cf.Retry.Interval)
	}
	if cf.Cache.Minutes > 0 {
		p.Options.EnableCache(cf.Cache.Minutes)
	}

	for i, spec := range cf.Fields {
		f, err := cf.field(spec)
		if err != nil {
			return nil, fmt.Errorf("field %d (%s): %w", i, spec.Name, err)
		}
		p.fields = append(p.fields, f)
	}

	return p, nil
}

func (cf *CallFile) field(spec FieldSpec) (httpservice.Field, error) {
	var f httpservice.Field

	switch strings.ToLower(spec.Bind) {
	case "query":
		f = httpservice.Query(spec.Name, spec.Value)
	case "form":
		f = httpservice.Form(spec.Name, spec.Value)
	case "header":
		f = httpservice.Header(spec.Name, spec.Value)
	case "raw_string":
		f = httpservice.RawString(spec.Value)
	case "raw_bytes":
		content, err := cf.content(spec)
		if err != nil {
			return f, err
		}
		f = httpservice.RawBytes(content)
	case "multipart_file":
		content, err := cf.content(spec)
		if err != nil {
			return f, err
		}
		fileName := spec.FileName
		if fileName == "" && spec.File != "" {
			fileName = filepath.Base(spec.File)
		}
		f = httpservice.MultipartFile(spec.Name, fileName, content)
	case "multipart_json":
		f = httpservice.MultipartJSON(spec.Name, spec.Value)
	default:
		return f, fmt.Errorf("unknown binding %q", spec.Bind)
	}

	if spec.Layout != "" {
		f = f.WithConverter(rfc3339Layout(spec.Layout))
	}
	if spec.IgnoreEmpty {
		f = f.IgnoreEmpty()
	}

	return f, nil
}

// content returns the bytes of a raw_bytes or multipart_file field.
func (cf *CallFile) content(spec FieldSpec) ([]byte, error) {
	if spec.File == "" {
		if spec.Value == nil {
			return nil, nil
		}
		return []byte(fmt.Sprint(spec.Value)), nil
	}

	path := spec.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(cf.dir, path)
	}
	return os.ReadFile(path)
}

// rfc3339Layout re-formats an RFC 3339 value from YAML with layout.
func rfc3339Layout(layout string) httpservice.Converter {
	toLayout := httpservice.TimeLayout(layout)

	return func(v any) (string, error) {
		switch t := v.(type) {
		case time.Time:
			return toLayout(t)
		case string:
			parsed, err := time.Parse(time.RFC3339, t)
			if err != nil {
				return "", err
			}
			return toLayout(parsed)
		default:
			return "", fmt.Errorf("cannot format %T as time", v)
		}
	}
}

// tokenHook sets the auth header from the environment before every call.
type tokenHook struct {
	auth   AuthConfig
	lookup func(string) (string, bool)
}

func newTokenHook(auth AuthConfig) *tokenHook {
	return &tokenHook{auth: auth, lookup: os.LookupEnv}
}

func (h *tokenHook) Process(_ context.Context, p *callParams) error {
	token, ok := h.lookup(h.auth.TokenEnv)
	if !ok || token == "" {
		return fmt.Errorf("environment variable %s is not set", h.auth.TokenEnv)
	}

	header := h.auth.Header
	if header == "" {
		header = "Authorization"
	}
	if h.auth.Scheme != "" {
		token = h.auth.Scheme + " " + token
	}

	p.setHeader(header, token)
	return nil
}
