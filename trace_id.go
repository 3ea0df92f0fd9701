// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaeger

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
)

// maxTraceIDLength is the length of the hex encoding of a 128-bit TraceID.
const maxTraceIDLength = 32

var errTraceIDLength = errors.New("trace id must be 1 to 32 hex characters")

// TraceID is the unique 128-bit identifier of a trace.
//
// Legacy 64-bit trace IDs are represented with a zero High half.
type TraceID struct {
	High uint64
	Low  uint64
}

// IsZero reports whether both halves of t are zero.
func (t TraceID) IsZero() bool { return t.High == 0 && t.Low == 0 }

// String returns the lowercase hex encoding of t. The high half is omitted
// when it is zero, otherwise the low half is zero-padded to 16 digits.
func (t TraceID) String() string {
	if t.High == 0 {
		return strconv.FormatUint(t.Low, 16)
	}
	return fmt.Sprintf("%x%016x", t.High, t.Low)
}

// ParseTraceID parses the hex encoding of a TraceID.
//
// Inputs of up to 16 characters set only the low half. Longer inputs (up to
// 32 characters) use the trailing 16 characters for the low half and the
// remainder for the high half. An empty, oversized, or non-hex input returns
// an error matching ErrInvalidInput.
func ParseTraceID(s string) (TraceID, error) {
	const op = "parse trace id"

	if len(s) == 0 || len(s) > maxTraceIDLength {
		return TraceID{}, InvalidInput(op, fmt.Errorf("%w: %q", errTraceIDLength, s))
	}

	var (
		id  TraceID
		err error
	)
	if len(s) > 16 {
		split := len(s) - 16
		if id.High, err = strconv.ParseUint(s[:split], 16, 64); err != nil {
			return TraceID{}, InvalidInput(op, err)
		}
		s = s[split:]
	}
	if id.Low, err = strconv.ParseUint(s, 16, 64); err != nil {
		return TraceID{}, InvalidInput(op, err)
	}
	return id, nil
}

// IDGenerator generates trace and span identifiers.
type IDGenerator interface {
	// NewTraceID returns a new trace ID.
	NewTraceID() TraceID
	// NewSpanID returns a new span ID.
	NewSpanID() uint64
}

type randomIDGenerator struct{}

func (randomIDGenerator) NewTraceID() TraceID { return RandomTraceID() }

func (randomIDGenerator) NewSpanID() uint64 { return rand.Uint64() }

// RandomIDGenerator returns the default IDGenerator. The identifiers it
// returns are drawn from a uniform 64-bit source and are safe to generate
// concurrently.
func RandomIDGenerator() IDGenerator { return randomIDGenerator{} }

// RandomTraceID returns a TraceID whose halves are independently drawn from
// a uniform 64-bit source.
func RandomTraceID() TraceID {
	return TraceID{High: rand.Uint64(), Low: rand.Uint64()}
}
