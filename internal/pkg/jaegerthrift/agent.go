// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaegerthrift

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/thrift/lib/go/thrift"
)

// EmitBatchMethod is the agent.thrift one-way method receiving a Batch.
const EmitBatchMethod = "emitBatch"

var errNilBatch = errors.New("nil batch")

// Protocol is a Thrift protocol accepted by the Jaeger agent.
type Protocol uint8

const (
	// ProtocolCompact is the Thrift compact protocol.
	ProtocolCompact Protocol = iota
	// ProtocolBinary is the Thrift binary protocol.
	ProtocolBinary
)

func (p Protocol) String() string {
	switch p {
	case ProtocolCompact:
		return "compact"
	case ProtocolBinary:
		return "binary"
	default:
		return fmt.Sprintf("Protocol(%d)", uint8(p))
	}
}

// NewProtocol returns a protocol of kind p reading and writing trans.
func (p Protocol) NewProtocol(trans thrift.TTransport) (thrift.TProtocol, error) {
	conf := &thrift.TConfiguration{}
	switch p {
	case ProtocolCompact:
		return thrift.NewTCompactProtocolConf(trans, conf), nil
	case ProtocolBinary:
		return thrift.NewTBinaryProtocolConf(trans, conf), nil
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", p)
	}
}

// emitBatchArgs is the argument struct of the emitBatch call.
type emitBatchArgs struct {
	Batch *Batch
}

func (a *emitBatchArgs) Write(ctx context.Context, p thrift.TProtocol) error {
	w := newFieldWriter(ctx, p, "emitBatch_args")
	w.structure("batch", 1, a.Batch.Write)
	return w.end()
}

// WriteEmitBatch writes b to p as a one-way emitBatch message with sequence
// ID 0 and flushes p.
func WriteEmitBatch(ctx context.Context, p thrift.TProtocol, b *Batch) error {
	if b == nil {
		return errNilBatch
	}
	if err := p.WriteMessageBegin(ctx, EmitBatchMethod, thrift.ONEWAY, 0); err != nil {
		return err
	}
	args := emitBatchArgs{Batch: b}
	if err := args.Write(ctx, p); err != nil {
		return err
	}
	if err := p.WriteMessageEnd(ctx); err != nil {
		return err
	}
	return p.Flush(ctx)
}

// Encode returns the emitBatch message carrying b, encoded with proto.
func Encode(ctx context.Context, proto Protocol, b *Batch) ([]byte, error) {
	buf := thrift.NewTMemoryBufferLen(1024)
	p, err := proto.NewProtocol(buf)
	if err != nil {
		return nil, err
	}
	if err := WriteEmitBatch(ctx, p, b); err != nil {
		return nil, fmt.Errorf("encode %s batch: %w", proto, err)
	}
	return buf.Bytes(), nil
}
