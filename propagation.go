// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaeger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// TraceContextHeaderName is the carrier key holding the trace-context
	// line. It is written in lower case and matched case-insensitively.
	TraceContextHeaderName = "uber-trace-id"
	// DebugHeaderName is the carrier key which, if found, forces the trace to
	// be sampled as a debug trace. Its value is recorded as a tag on the span
	// so the trace can be looked up by it.
	DebugHeaderName = "jaeger-debug-id"
	// BaggageHeaderName is reserved for baggage submitted without a parent
	// span. Baggage propagation is not implemented.
	BaggageHeaderName = "jaeger-baggage"
	// BaggageHeaderPrefix is reserved for baggage item keys. Baggage
	// propagation is not implemented.
	BaggageHeaderPrefix = "uberctx-"
)

// binaryContextLength is the fixed size of a binary encoded SpanContext:
// trace ID high, trace ID low, span ID, parent span ID, flags and baggage
// count.
const binaryContextLength = 8 + 8 + 8 + 8 + 1 + 4

var (
	errTokenCount  = errors.New("expected 4 colon separated fields")
	errInvalidUTF8 = errors.New("invalid UTF-8")
)

// formatTraceContext returns "<trace_id>:<span_id>:<parent_id>:<flags>" in
// lowercase hex. The parent ID is no longer used and is always 0.
func formatTraceContext(sc SpanContext) string {
	var b strings.Builder
	b.Grow(16*3 + 6)
	b.WriteString(sc.traceID.String())
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(sc.spanID, 16))
	b.WriteString(":0:")
	b.WriteString(strconv.FormatUint(uint64(sc.flags), 16))
	return b.String()
}

// parseTraceContext parses the output of formatTraceContext. The parent ID
// field must be valid hex but its value is discarded.
func parseTraceContext(s string) (SpanContext, error) {
	const op = "parse trace context"

	tokens := strings.Split(s, ":")
	if len(tokens) != 4 {
		return SpanContext{}, InvalidInput(op, fmt.Errorf("%w: %q", errTokenCount, s))
	}

	traceID, err := ParseTraceID(tokens[0])
	if err != nil {
		return SpanContext{}, err
	}
	spanID, err := strconv.ParseUint(tokens[1], 16, 64)
	if err != nil {
		return SpanContext{}, InvalidInput(op+": span id", err)
	}
	if _, err := strconv.ParseUint(tokens[2], 16, 64); err != nil {
		return SpanContext{}, InvalidInput(op+": parent id", err)
	}
	flags, err := strconv.ParseUint(tokens[3], 16, 8)
	if err != nil {
		return SpanContext{}, InvalidInput(op+": flags", err)
	}

	return SpanContext{
		traceID: traceID,
		spanID:  spanID,
		flags:   Flags(flags),
	}, nil
}

// InjectTextMap writes sc to w under TraceContextHeaderName.
func InjectTextMap(sc SpanContext, w TextMapWriter) error {
	w.Set(TraceContextHeaderName, formatTraceContext(sc))
	return nil
}

// ExtractTextMap reads a SpanContext from r.
//
// The keys are matched case-insensitively and decoded with the same rules as
// ExtractHTTPHeaders. If neither the trace-context key nor the debug key is
// present, ok is false and err is nil.
func ExtractTextMap(r TextMapReader) (sc SpanContext, ok bool, err error) {
	var fields HeaderFields
	err = r.ForeachKey(func(key, value string) error {
		if strings.EqualFold(key, TraceContextHeaderName) || strings.EqualFold(key, DebugHeaderName) {
			fields = append(fields, HeaderField{Name: key, Value: []byte(value)})
		}
		return nil
	})
	if err != nil {
		return SpanContext{}, false, err
	}
	return ExtractHTTPHeaders(fields)
}

// InjectHTTPHeaders writes sc to w under TraceContextHeaderName.
func InjectHTTPHeaders(sc SpanContext, w HTTPHeaderWriter) error {
	w.SetHeader(TraceContextHeaderName, formatTraceContext(sc))
	return nil
}

// ExtractHTTPHeaders reads a SpanContext from r.
//
// The trace-context value is percent-decoded before it is parsed. When it
// appears more than once the last occurrence is used. A debug ID found under
// DebugHeaderName is attached to the context and sets FlagDebug. If only a
// debug ID is present the returned context has zero IDs and only FlagDebug
// set. If neither header is present, ok is false and err is nil.
//
// Flags are taken verbatim from the carrier.
func ExtractHTTPHeaders(r HTTPHeaderReader) (sc SpanContext, ok bool, err error) {
	var (
		found   bool
		debugID string
	)
	err = r.ForeachHeader(func(name string, value []byte) error {
		switch {
		case strings.EqualFold(name, TraceContextHeaderName):
			line, err := percentDecode(value)
			if err != nil {
				return err
			}
			if sc, err = parseTraceContext(line); err != nil {
				return err
			}
			found = true
		case strings.EqualFold(name, DebugHeaderName):
			if !utf8.Valid(value) {
				return InvalidInput("decode "+DebugHeaderName, errInvalidUTF8)
			}
			debugID = string(value)
		}
		return nil
	})
	if err != nil {
		return SpanContext{}, false, err
	}

	switch {
	case found:
		return sc.withDebugID(debugID), true, nil
	case debugID != "":
		return SpanContext{flags: FlagDebug, debugID: debugID}, true, nil
	default:
		return SpanContext{}, false, nil
	}
}

// percentDecode decodes %XX escapes in v. Some clients percent-encode the
// colons of the trace-context line.
func percentDecode(v []byte) (string, error) {
	const op = "decode " + TraceContextHeaderName

	s, err := url.PathUnescape(string(v))
	if err != nil {
		return "", InvalidInput(op, err)
	}
	if !utf8.ValidString(s) {
		return "", InvalidInput(op, errInvalidUTF8)
	}
	return s, nil
}

// InjectBinary writes the fixed 37 byte big-endian encoding of sc to w:
//
//	trace_id.high (8) | trace_id.low (8) | span_id (8) | parent_id (8, zero) | flags (1) | baggage_count (4, zero)
func InjectBinary(sc SpanContext, w io.Writer) error {
	buf := make([]byte, 0, binaryContextLength)
	buf = binary.BigEndian.AppendUint64(buf, sc.traceID.High)
	buf = binary.BigEndian.AppendUint64(buf, sc.traceID.Low)
	buf = binary.BigEndian.AppendUint64(buf, sc.spanID)
	buf = binary.BigEndian.AppendUint64(buf, 0)
	buf = append(buf, byte(sc.flags))
	buf = binary.BigEndian.AppendUint32(buf, 0)

	if _, err := w.Write(buf); err != nil {
		return Other("inject binary", err)
	}
	return nil
}

// ExtractBinary reads a SpanContext encoded by InjectBinary from r.
//
// The parent ID is discarded. Baggage items announced by a non-zero baggage
// count are read and discarded. If r is empty, ok is false and err is nil. A
// truncated encoding returns an error matching ErrInvalidInput.
func ExtractBinary(r io.Reader) (sc SpanContext, ok bool, err error) {
	const op = "extract binary"

	var buf [binaryContextLength]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return SpanContext{}, false, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return SpanContext{}, false, InvalidInput(op, err)
		}
		return SpanContext{}, false, Other(op, err)
	}

	sc = SpanContext{
		traceID: TraceID{
			High: binary.BigEndian.Uint64(buf[0:8]),
			Low:  binary.BigEndian.Uint64(buf[8:16]),
		},
		spanID: binary.BigEndian.Uint64(buf[16:24]),
		// buf[24:32] is the obsolete parent span ID.
		flags: Flags(buf[32]),
	}

	if n := binary.BigEndian.Uint32(buf[33:37]); n > 0 {
		if err := discardBaggage(r, n); err != nil {
			return SpanContext{}, false, InvalidInput(op+": baggage", err)
		}
	}
	return sc, true, nil
}

// discardBaggage skips n length-prefixed key/value pairs.
func discardBaggage(r io.Reader, n uint32) error {
	var lenBuf [4]byte
	for range 2 * uint64(n) {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return noEOF(err)
		}
		size := int64(binary.BigEndian.Uint32(lenBuf[:]))
		if _, err := io.CopyN(io.Discard, r, size); err != nil {
			return noEOF(err)
		}
	}
	return nil
}

func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
