// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaeger

import (
	"net/http"
	"strings"
)

// TextMapWriter is a carrier that span contexts can be injected into.
type TextMapWriter interface {
	// Set sets key to value, replacing any existing value.
	Set(key, value string)
}

// TextMapReader is a carrier that span contexts can be extracted from.
type TextMapReader interface {
	// ForeachKey calls handler for every key/value pair held by the carrier.
	// If handler returns an error iteration stops and that error is returned.
	ForeachKey(handler func(key, value string) error) error
}

// TextMapCarrier is a TextMapWriter and TextMapReader backed by a map.
type TextMapCarrier map[string]string

var (
	_ TextMapWriter = TextMapCarrier(nil)
	_ TextMapReader = TextMapCarrier(nil)
)

// Set sets key to value.
func (c TextMapCarrier) Set(key, value string) { c[key] = value }

// ForeachKey calls handler for each entry of c.
func (c TextMapCarrier) ForeachKey(handler func(key, value string) error) error {
	for k, v := range c {
		if err := handler(k, v); err != nil {
			return err
		}
	}
	return nil
}

// HTTPHeaderWriter is an HTTP header carrier that span contexts can be
// injected into.
type HTTPHeaderWriter interface {
	// SetHeader sets the header name to value, replacing existing values.
	SetHeader(name, value string)
}

// HTTPHeaderReader is an HTTP header carrier that span contexts can be
// extracted from.
type HTTPHeaderReader interface {
	// ForeachHeader calls handler for every header field in order. A name
	// may be seen more than once.
	ForeachHeader(handler func(name string, value []byte) error) error
}

// HeaderField is a raw HTTP header field.
type HeaderField struct {
	Name  string
	Value []byte
}

// HeaderFields is an ordered list of HTTP header fields. It implements
// HTTPHeaderWriter and HTTPHeaderReader.
type HeaderFields []HeaderField

var (
	_ HTTPHeaderWriter = (*HeaderFields)(nil)
	_ HTTPHeaderReader = HeaderFields(nil)
)

// SetHeader removes all fields named name (case-insensitive) and appends a
// new field.
func (h *HeaderFields) SetHeader(name, value string) {
	out := (*h)[:0]
	for _, f := range *h {
		if !strings.EqualFold(f.Name, name) {
			out = append(out, f)
		}
	}
	*h = append(out, HeaderField{Name: name, Value: []byte(value)})
}

// ForeachHeader calls handler for each field of h in order.
func (h HeaderFields) ForeachHeader(handler func(name string, value []byte) error) error {
	for _, f := range h {
		if err := handler(f.Name, f.Value); err != nil {
			return err
		}
	}
	return nil
}

// HTTPHeaderCarrier adapts an http.Header to be used as an HTTP carrier.
type HTTPHeaderCarrier http.Header

var (
	_ HTTPHeaderWriter = HTTPHeaderCarrier(nil)
	_ HTTPHeaderReader = HTTPHeaderCarrier(nil)
)

// SetHeader sets name to value. The name is stored as given, without
// canonicalization, after removing any key that matches it case-insensitively.
func (c HTTPHeaderCarrier) SetHeader(name, value string) {
	for k := range c {
		if strings.EqualFold(k, name) {
			delete(c, k)
		}
	}
	c[name] = []string{value}
}

// ForeachHeader calls handler for every value of every header in c.
func (c HTTPHeaderCarrier) ForeachHeader(handler func(name string, value []byte) error) error {
	for k, vals := range c {
		for _, v := range vals {
			if err := handler(k, []byte(v)); err != nil {
				return err
			}
		}
	}
	return nil
}
