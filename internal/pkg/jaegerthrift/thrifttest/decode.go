// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package thrifttest decodes Thrift messages into generic values so tests
// can assert on field IDs without a generated reader.
package thrifttest

import (
	"context"
	"fmt"

	"github.com/apache/thrift/lib/go/thrift"

	"github.com/tracewire/jaeger/internal/pkg/jaegerthrift"
)

// Fields is a decoded struct keyed by field ID. Values are bool, int8,
// int16, int32, int64, float64, string (also used for binary), Fields or
// []any.
type Fields map[int16]any

// Struct returns field id as a struct, or nil.
func (f Fields) Struct(id int16) Fields {
	v, _ := f[id].(Fields)
	return v
}

// List returns field id as a list, or nil.
func (f Fields) List(id int16) []any {
	v, _ := f[id].([]any)
	return v
}

// Message is a decoded Thrift message.
type Message struct {
	Name  string
	Type  thrift.TMessageType
	SeqID int32
	Args  Fields
}

// Decode decodes a single message encoded with proto from data.
func Decode(ctx context.Context, proto jaegerthrift.Protocol, data []byte) (Message, error) {
	buf := thrift.NewTMemoryBuffer()
	if _, err := buf.Write(data); err != nil {
		return Message{}, err
	}
	p, err := proto.NewProtocol(buf)
	if err != nil {
		return Message{}, err
	}

	var m Message
	m.Name, m.Type, m.SeqID, err = p.ReadMessageBegin(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("read message begin: %w", err)
	}
	if m.Args, err = readStruct(ctx, p); err != nil {
		return Message{}, err
	}
	if err := p.ReadMessageEnd(ctx); err != nil {
		return Message{}, err
	}
	if n := buf.Len(); n != 0 {
		return Message{}, fmt.Errorf("%d trailing bytes", n)
	}
	return m, nil
}

func readStruct(ctx context.Context, p thrift.TProtocol) (Fields, error) {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return nil, err
	}
	out := Fields{}
	for {
		_, typ, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return nil, err
		}
		if typ == thrift.STOP {
			break
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("duplicate field %d", id)
		}
		if out[id], err = readValue(ctx, p, typ); err != nil {
			return nil, fmt.Errorf("field %d: %w", id, err)
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return nil, err
		}
	}
	return out, p.ReadStructEnd(ctx)
}

func readValue(ctx context.Context, p thrift.TProtocol, typ thrift.TType) (any, error) {
	switch typ {
	case thrift.BOOL:
		return p.ReadBool(ctx)
	case thrift.BYTE:
		return p.ReadByte(ctx)
	case thrift.I16:
		return p.ReadI16(ctx)
	case thrift.I32:
		return p.ReadI32(ctx)
	case thrift.I64:
		return p.ReadI64(ctx)
	case thrift.DOUBLE:
		return p.ReadDouble(ctx)
	case thrift.STRING:
		return p.ReadString(ctx)
	case thrift.STRUCT:
		return readStruct(ctx, p)
	case thrift.LIST:
		elem, size, err := p.ReadListBegin(ctx)
		if err != nil {
			return nil, err
		}
		list := make([]any, 0, size)
		for i := 0; i < size; i++ {
			v, err := readValue(ctx, p, elem)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, p.ReadListEnd(ctx)
	default:
		return nil, fmt.Errorf("unsupported type %s", typ)
	}
}
