// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Process tag keys.
const (
	ClientVersionTagKey = attribute.Key("jaeger.version")
	HostnameTagKey      = attribute.Key("hostname")
	IPTagKey            = attribute.Key("ip")
	ClientUUIDTagKey    = attribute.Key("client-uuid")
)

// MetadataProvider supplies process tags describing the host the reporter
// runs on. Errors are not fatal: the returned tags are used and the error is
// logged.
type MetadataProvider interface {
	Metadata(context.Context) ([]attribute.KeyValue, error)
}

// MetadataProviderFunc is a function that implements MetadataProvider.
type MetadataProviderFunc func(context.Context) ([]attribute.KeyValue, error)

// Metadata returns f(ctx).
func (f MetadataProviderFunc) Metadata(ctx context.Context) ([]attribute.KeyValue, error) {
	return f(ctx)
}

// StaticMetadata returns a MetadataProvider that always returns tags.
func StaticMetadata(tags ...attribute.KeyValue) MetadataProvider {
	return MetadataProviderFunc(func(context.Context) ([]attribute.KeyValue, error) {
		return tags, nil
	})
}

var (
	hostname       = os.Hostname
	interfaceAddrs = net.InterfaceAddrs
	newUUID        = uuid.NewString
)

var errNoIP = errors.New("no non-loopback IPv4 address")

type hostMetadata struct{}

// HostMetadata returns the default MetadataProvider. It reports the
// hostname, the first non-loopback IPv4 address and a random client UUID
// identifying this reporter instance.
func HostMetadata() MetadataProvider { return hostMetadata{} }

func (hostMetadata) Metadata(context.Context) ([]attribute.KeyValue, error) {
	var (
		tags []attribute.KeyValue
		err  error
	)
	if h, e := hostname(); e != nil {
		err = errors.Join(err, fmt.Errorf("lookup hostname: %w", e))
	} else {
		tags = append(tags, HostnameTagKey.String(h))
	}
	if ip, e := hostIP(); e != nil {
		err = errors.Join(err, fmt.Errorf("lookup ip: %w", e))
	} else {
		tags = append(tags, IPTagKey.String(ip.String()))
	}
	tags = append(tags, ClientUUIDTagKey.String(newUUID()))
	return tags, err
}

func hostIP() (net.IP, error) {
	addrs, err := interfaceAddrs()
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		n, ok := a.(*net.IPNet)
		if !ok || n.IP.IsLoopback() {
			continue
		}
		if ip4 := n.IP.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, errNoIP
}

type resourceMetadata struct {
	res *resource.Resource
}

// ResourceMetadata returns a MetadataProvider reporting the attributes of
// res. The OpenTelemetry host name becomes the hostname tag and the service
// name, which is reported as the process service name, is skipped.
func ResourceMetadata(res *resource.Resource) MetadataProvider {
	return resourceMetadata{res: res}
}

func (m resourceMetadata) Metadata(context.Context) ([]attribute.KeyValue, error) {
	if m.res == nil {
		return nil, nil
	}
	var tags []attribute.KeyValue
	iter := m.res.Iter()
	for iter.Next() {
		kv := iter.Attribute()
		switch kv.Key {
		case semconv.ServiceNameKey:
			continue
		case semconv.HostNameKey:
			kv.Key = HostnameTagKey
		}
		tags = append(tags, kv)
	}
	return tags, nil
}
