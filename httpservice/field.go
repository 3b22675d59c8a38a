package httpservice

import (
	"fmt"
	"time"
)

// Binding is the transport slot a field is packed into.
type Binding int

const (
	// BindNone marks a field the packer skips.
	BindNone Binding = iota
	BindQuery
	BindForm
	BindHeader
	BindRawString
	BindRawBytes
	BindMultipartFile
	BindMultipartJSON
)

// String returns the binding name used in logs.
func (b Binding) String() string {
	switch b {
	case BindQuery:
		return "query"
	case BindForm:
		return "form"
	case BindHeader:
		return "header"
	case BindRawString:
		return "raw_string"
	case BindRawBytes:
		return "raw_bytes"
	case BindMultipartFile:
		return "multipart_file"
	case BindMultipartJSON:
		return "multipart_json"
	default:
		return "none"
	}
}

// Converter formats a field value for the wire.
type Converter func(v any) (string, error)

// TimeLayout returns a Converter that formats time.Time values with layout.
//
// Example:
//
//	httpservice.Query("since", p.Since).WithConverter(httpservice.TimeLayout("2006/01/02"))
func TimeLayout(layout string) Converter {
	return func(v any) (string, error) {
		switch t := v.(type) {
		case time.Time:
			return t.Format(layout), nil
		case *time.Time:
			if t == nil {
				return "", nil
			}
			return t.Format(layout), nil
		default:
			return "", fmt.Errorf("time layout converter: unsupported type %T", v)
		}
	}
}

// Field binds one parameter value to a transport slot.
// The zero Field is skipped by the packer.
type Field struct {
	Binding Binding
	Name    string
	Value   any

	// FileName is sent in the Content-Disposition of multipart file parts
	// and drives their content type.
	FileName string

	converter   Converter
	ignoreEmpty bool
}

// Query binds v to the query string under name.
func Query(name string, v any) Field {
	return Field{Binding: BindQuery, Name: name, Value: v}
}

// Form binds v to the url-encoded form body under name.
func Form(name string, v any) Field {
	return Field{Binding: BindForm, Name: name, Value: v}
}

// Header binds v to the request header name.
func Header(name string, v any) Field {
	return Field{Binding: BindHeader, Name: name, Value: v}
}

// RawString appends the string form of v to the raw text body.
// Multiple raw string fields are concatenated in declaration order.
func RawString(v any) Field {
	return Field{Binding: BindRawString, Value: v}
}

// RawBytes sets b as the raw binary body.
func RawBytes(b []byte) Field {
	return Field{Binding: BindRawBytes, Value: b}
}

// MultipartFile adds a file part named name. The content type is derived
// from fileName, falling back to sniffing content.
func MultipartFile(name, fileName string, content []byte) Field {
	return Field{Binding: BindMultipartFile, Name: name, FileName: fileName, Value: content}
}

// MultipartJSON adds an application/json part named name. Strings and byte
// slices are sent as-is; other values are marshalled with the default codec.
func MultipartJSON(name string, v any) Field {
	return Field{Binding: BindMultipartJSON, Name: name, Value: v}
}

// WithConverter replaces the default formatting of the field value.
func (f Field) WithConverter(c Converter) Field {
	f.converter = c
	return f
}

// IgnoreEmpty drops the field when its name or formatted value is empty.
func (f Field) IgnoreEmpty() Field {
	f.ignoreEmpty = true
	return f
}

// format renders the field value as a string.
func (f Field) format() (string, error) {
	if f.converter != nil {
		return f.converter(f.Value)
	}

	switch v := f.Value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return fmt.Sprint(v), nil
	}
}
