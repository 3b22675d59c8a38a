package httpservice

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kroma-labs/invoker/cache"
)

// Pair is a single name/value entry of an ordered mapping.
type Pair struct {
	Key   string
	Value string
}

// Pairs is an ordered mapping with unique keys. Setting an existing key
// replaces its value in place, so iteration order is first-insertion order.
type Pairs []Pair

// Set inserts or replaces key.
func (ps *Pairs) Set(key, value string) {
	for i := range *ps {
		if (*ps)[i].Key == key {
			(*ps)[i].Value = value
			return
		}
	}
	*ps = append(*ps, Pair{Key: key, Value: value})
}

// Get returns the value stored under key.
func (ps Pairs) Get(key string) (string, bool) {
	for _, p := range ps {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// MultipartItem is one part of a multipart body.
type MultipartItem struct {
	Name        string
	FileName    string
	ContentType string
	Content     []byte
}

// PackResult is the transport-agnostic form of a parameter.
type PackResult struct {
	// Query is the encoded query string without a leading separator,
	// for example "q=foo&page=2".
	Query string

	Headers Pairs
	Form    Pairs

	// RawStrings are concatenated in order to form a text body.
	RawStrings []string

	// RawBytes is a binary body. The last bound field wins.
	RawBytes []byte

	// Multipart parts in first-insertion order, unique by name.
	Multipart []MultipartItem
}

// HasBody reports whether any body slot carries content.
func (r *PackResult) HasBody() bool {
	return len(r.Multipart) > 0 ||
		len(r.RawStrings) > 0 ||
		r.RawBytes != nil ||
		len(r.Form) > 0
}

// formPairs converts the form mapping for fingerprinting.
func (r *PackResult) formPairs() []cache.FormPair {
	out := make([]cache.FormPair, len(r.Form))
	for i, p := range r.Form {
		out[i] = cache.FormPair{Key: p.Key, Value: p.Value}
	}
	return out
}

func (r *PackResult) setMultipart(item MultipartItem) {
	for i := range r.Multipart {
		if r.Multipart[i].Name == item.Name {
			r.Multipart[i] = item
			return
		}
	}
	r.Multipart = append(r.Multipart, item)
}

// Pack walks the field bindings of p in declaration order and produces a
// PackResult. It has no side effects; packing the same values twice yields
// identical results.
//
// A converter error aborts packing and is returned wrapped with the field name.
func Pack(p Params) (*PackResult, error) {
	var (
		res   = &PackResult{}
		query strings.Builder
	)

	for _, f := range p.Fields() {
		switch f.Binding {
		case BindNone:
			continue

		case BindQuery, BindForm, BindHeader:
			v, err := f.format()
			if err != nil {
				return nil, fieldError(f, err)
			}
			if f.ignoreEmpty && (f.Name == "" || v == "") {
				continue
			}

			switch f.Binding {
			case BindQuery:
				query.WriteByte('&')
				query.WriteString(f.Name)
				query.WriteByte('=')
				query.WriteString(url.QueryEscape(v))
			case BindForm:
				res.Form.Set(f.Name, v)
			default:
				res.Headers.Set(f.Name, v)
			}

		case BindRawString:
			if f.Value == nil {
				continue
			}
			v, err := f.format()
			if err != nil {
				return nil, fieldError(f, err)
			}
			if f.ignoreEmpty && v == "" {
				continue
			}
			res.RawStrings = append(res.RawStrings, v)

		case BindRawBytes:
			b, ok := f.Value.([]byte)
			if !ok || b == nil {
				continue
			}
			res.RawBytes = b

		case BindMultipartFile:
			b, _ := f.Value.([]byte)
			if len(b) == 0 {
				continue
			}
			res.setMultipart(MultipartItem{
				Name:        f.Name,
				FileName:    f.FileName,
				ContentType: fileContentType(f.FileName, b),
				Content:     b,
			})

		case BindMultipartJSON:
			b, err := jsonPart(f)
			if err != nil {
				return nil, fieldError(f, err)
			}
			if len(b) == 0 {
				continue
			}
			res.setMultipart(MultipartItem{
				Name:        f.Name,
				ContentType: contentTypeJSON,
				Content:     b,
			})

		default:
			return nil, fmt.Errorf("field %q: unknown binding %d", f.Name, f.Binding)
		}
	}

	res.Query = strings.TrimPrefix(query.String(), "&")

	return res, nil
}

func jsonPart(f Field) ([]byte, error) {
	if f.converter != nil {
		s, err := f.converter(f.Value)
		return []byte(s), err
	}

	switch v := f.Value.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return DefaultCodec.Marshal(v)
	}
}

func fieldError(f Field, err error) error {
	return fmt.Errorf("field %q (%s): %w", f.Name, f.Binding, err)
}
