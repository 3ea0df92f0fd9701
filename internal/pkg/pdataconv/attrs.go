// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package pdataconv converts attributes between the collector pdata format
// and OpenTelemetry attribute values.
package pdataconv

import (
	"fmt"

	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/otel/attribute"
)

// Attributes sets the attrs in the provided pcommon.Map dest.
func Attributes(dest pcommon.Map, attrs ...attribute.KeyValue) {
	for _, attr := range attrs {
		setAttr(dest, attr)
	}
}

func setAttr(dest pcommon.Map, attr attribute.KeyValue) {
	switch attr.Value.Type() {
	case attribute.BOOL:
		dest.PutBool(string(attr.Key), attr.Value.AsBool())
	case attribute.INT64:
		dest.PutInt(string(attr.Key), attr.Value.AsInt64())
	case attribute.FLOAT64:
		dest.PutDouble(string(attr.Key), attr.Value.AsFloat64())
	case attribute.STRING:
		dest.PutStr(string(attr.Key), attr.Value.AsString())
	case attribute.BOOLSLICE:
		s := dest.PutEmptySlice(string(attr.Key))
		for _, v := range attr.Value.AsBoolSlice() {
			s.AppendEmpty().SetBool(v)
		}
	case attribute.INT64SLICE:
		s := dest.PutEmptySlice(string(attr.Key))
		for _, v := range attr.Value.AsInt64Slice() {
			s.AppendEmpty().SetInt(v)
		}
	case attribute.FLOAT64SLICE:
		s := dest.PutEmptySlice(string(attr.Key))
		for _, v := range attr.Value.AsFloat64Slice() {
			s.AppendEmpty().SetDouble(v)
		}
	case attribute.STRINGSLICE:
		s := dest.PutEmptySlice(string(attr.Key))
		for _, v := range attr.Value.AsStringSlice() {
			s.AppendEmpty().SetStr(v)
		}
	}
}

// KeyValues returns the entries of m as attributes, in iteration order.
func KeyValues(m pcommon.Map) []attribute.KeyValue {
	if m.Len() == 0 {
		return nil
	}
	return AppendKeyValues(make([]attribute.KeyValue, 0, m.Len()), m)
}

// AppendKeyValues appends the entries of m to dest.
func AppendKeyValues(dest []attribute.KeyValue, m pcommon.Map) []attribute.KeyValue {
	m.Range(func(k string, v pcommon.Value) bool {
		dest = append(dest, attribute.KeyValue{Key: attribute.Key(k), Value: Value(v)})
		return true
	})
	return dest
}

// Value converts v. Maps, bytes and mixed-type slices become strings.
func Value(v pcommon.Value) attribute.Value {
	switch v.Type() {
	case pcommon.ValueTypeEmpty:
		return attribute.Value{}
	case pcommon.ValueTypeStr:
		return attribute.StringValue(v.Str())
	case pcommon.ValueTypeInt:
		return attribute.Int64Value(v.Int())
	case pcommon.ValueTypeDouble:
		return attribute.Float64Value(v.Double())
	case pcommon.ValueTypeBool:
		return attribute.BoolValue(v.Bool())
	case pcommon.ValueTypeSlice:
		return sliceValue(v.Slice())
	default:
		return attribute.StringValue(v.AsString())
	}
}

func sliceValue(s pcommon.Slice) attribute.Value {
	if s.Len() == 0 {
		// Undetectable slice type.
		return attribute.StringValue("<empty slice>")
	}

	// Validate homogeneity before allocating.
	t := s.At(0).Type()
	for i := 1; i < s.Len(); i++ {
		if s.At(i).Type() != t {
			return attribute.StringValue("<inhomogeneous slice>")
		}
	}

	switch t {
	case pcommon.ValueTypeBool:
		v := make([]bool, s.Len())
		for i := range s.Len() {
			v[i] = s.At(i).Bool()
		}
		return attribute.BoolSliceValue(v)
	case pcommon.ValueTypeStr:
		v := make([]string, s.Len())
		for i := range s.Len() {
			v[i] = s.At(i).Str()
		}
		return attribute.StringSliceValue(v)
	case pcommon.ValueTypeInt:
		v := make([]int64, s.Len())
		for i := range s.Len() {
			v[i] = s.At(i).Int()
		}
		return attribute.Int64SliceValue(v)
	case pcommon.ValueTypeDouble:
		v := make([]float64, s.Len())
		for i := range s.Len() {
			v[i] = s.At(i).Double()
		}
		return attribute.Float64SliceValue(v)
	default:
		return attribute.StringValue(fmt.Sprintf("<invalid slice type %s>", t.String()))
	}
}
