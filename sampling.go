// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package jaeger

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// CandidateSpan is a span about to be started, as seen by a Sampler.
type CandidateSpan struct {
	OperationName string
	// Context is the context the span will have if it is sampled.
	Context    SpanContext
	References []SpanReference
	Tags       []attribute.KeyValue
}

// Sampler decides whether a span should be recorded and reported.
type Sampler interface {
	ShouldSample(CandidateSpan) bool
}

// Jaeger client sampler environment variables and names.
const (
	samplerTypeKey  = "JAEGER_SAMPLER_TYPE"
	samplerParamKey = "JAEGER_SAMPLER_PARAM"

	samplerNameConst                   = "const"
	samplerNameProbabilistic           = "probabilistic"
	samplerNameAlwaysOn                = "always_on"
	samplerNameAlwaysOff               = "always_off"
	samplerNameTraceIDRatio            = "traceidratio"
	samplerNameParentBasedAlwaysOn     = "parentbased_always_on"
	samplerNameParentBasedAlwaysOff    = "parentbased_always_off"
	samplerNameParentBasedTraceIDRatio = "parentbased_traceidratio"
)

var (
	errInvalidFraction    = errors.New("fraction must be a float between 0 and 1")
	errUnknownSamplerName = errors.New("unknown sampler name")
	errNestedParentBased  = errors.New("parent-based sampler cannot wrap parent-based sampler")
)

// AlwaysOnSampler samples every span.
type AlwaysOnSampler struct{}

var _ Sampler = AlwaysOnSampler{}

// ShouldSample returns true.
func (AlwaysOnSampler) ShouldSample(CandidateSpan) bool { return true }

// AlwaysOffSampler samples no span.
type AlwaysOffSampler struct{}

var _ Sampler = AlwaysOffSampler{}

// ShouldSample returns false.
func (AlwaysOffSampler) ShouldSample(CandidateSpan) bool { return false }

// maxRandomNumber bounds the part of a trace ID compared against the
// sampling boundary.
const maxRandomNumber = ^(uint64(1) << 63)

// TraceIDRatioSampler samples a given fraction of traces based on the low
// half of the trace ID, so every span of a trace gets the same decision.
type TraceIDRatioSampler struct {
	// Fraction of traces to sample, in the closed interval [0, 1].
	Fraction float64
}

var _ Sampler = TraceIDRatioSampler{}

func (t TraceIDRatioSampler) validate() error {
	if t.Fraction < 0 || t.Fraction > 1 {
		return fmt.Errorf("%w: %v", errInvalidFraction, t.Fraction)
	}
	return nil
}

// ShouldSample reports whether the candidate's trace ID falls within the
// sampled fraction.
func (t TraceIDRatioSampler) ShouldSample(c CandidateSpan) bool {
	switch {
	case t.Fraction >= 1:
		return true
	case t.Fraction <= 0:
		return false
	}
	boundary := uint64(t.Fraction * float64(maxRandomNumber))
	return c.Context.TraceID().Low&maxRandomNumber < boundary
}

// ParentBasedSampler follows the sampling decision of the primary parent
// reference. Spans without references are decided by Root.
type ParentBasedSampler struct {
	// Root is used for spans without a parent (default AlwaysOnSampler).
	Root Sampler
	// Sampled is used when the parent is sampled (default AlwaysOnSampler).
	Sampled Sampler
	// NotSampled is used when the parent is not sampled (default
	// AlwaysOffSampler).
	NotSampled Sampler
}

var _ Sampler = ParentBasedSampler{}

func (p ParentBasedSampler) validate() error {
	return errors.Join(
		validateParentBasedComponent(p.Root),
		validateParentBasedComponent(p.Sampled),
		validateParentBasedComponent(p.NotSampled),
	)
}

func validateParentBasedComponent(s Sampler) error {
	if s == nil {
		return nil
	}
	if _, ok := s.(ParentBasedSampler); ok {
		return errNestedParentBased
	}
	return validateSampler(s)
}

// ShouldSample delegates to the sampler matching the parent's decision.
func (p ParentBasedSampler) ShouldSample(c CandidateSpan) bool {
	if len(c.References) == 0 {
		return orDefault(p.Root, AlwaysOnSampler{}).ShouldSample(c)
	}
	if c.References[0].Context.IsSampled() {
		return orDefault(p.Sampled, AlwaysOnSampler{}).ShouldSample(c)
	}
	return orDefault(p.NotSampled, AlwaysOffSampler{}).ShouldSample(c)
}

func orDefault(s, def Sampler) Sampler {
	if s == nil {
		return def
	}
	return s
}

// DefaultSampler returns a ParentBasedSampler with an AlwaysOnSampler root.
func DefaultSampler() Sampler {
	return ParentBasedSampler{
		Root:       AlwaysOnSampler{},
		Sampled:    AlwaysOnSampler{},
		NotSampled: AlwaysOffSampler{},
	}
}

// validateSampler returns an error if s is misconfigured.
func validateSampler(s Sampler) error {
	if v, ok := s.(interface{ validate() error }); ok {
		return v.validate()
	}
	return nil
}

var lookupEnv = os.LookupEnv

// SamplerFromEnv returns the Sampler described by the JAEGER_SAMPLER_TYPE and
// JAEGER_SAMPLER_PARAM environment variables. If JAEGER_SAMPLER_TYPE is not
// set, DefaultSampler is returned.
//
// Supported types are "const" (param 1 or 0), "probabilistic" (param is the
// sampled fraction), "always_on", "always_off", "traceidratio",
// "parentbased_always_on", "parentbased_always_off" and
// "parentbased_traceidratio".
func SamplerFromEnv() (Sampler, error) {
	s, err := newSamplerFromEnv(lookupEnv)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return DefaultSampler(), nil
	}
	return s, validateSampler(s)
}

func newSamplerFromEnv(lookupEnv func(string) (string, bool)) (Sampler, error) {
	samplerName, ok := lookupEnv(samplerTypeKey)
	if !ok {
		return nil, nil
	}

	defaultSampler := DefaultSampler().(ParentBasedSampler)

	samplerName = strings.ToLower(strings.TrimSpace(samplerName))
	samplerArg, hasSamplerArg := lookupEnv(samplerParamKey)
	samplerArg = strings.TrimSpace(samplerArg)

	ratio := func() (float64, error) {
		if !hasSamplerArg {
			return 1, nil
		}
		r, err := strconv.ParseFloat(samplerArg, 64)
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", samplerParamKey, err)
		}
		return r, nil
	}

	switch samplerName {
	case samplerNameConst:
		r, err := ratio()
		if err != nil {
			return nil, err
		}
		if r == 0 {
			return AlwaysOffSampler{}, nil
		}
		return AlwaysOnSampler{}, nil
	case samplerNameAlwaysOn:
		return AlwaysOnSampler{}, nil
	case samplerNameAlwaysOff:
		return AlwaysOffSampler{}, nil
	case samplerNameProbabilistic, samplerNameTraceIDRatio:
		r, err := ratio()
		if err != nil {
			return nil, err
		}
		return TraceIDRatioSampler{Fraction: r}, nil
	case samplerNameParentBasedAlwaysOn:
		defaultSampler.Root = AlwaysOnSampler{}
		return defaultSampler, nil
	case samplerNameParentBasedAlwaysOff:
		defaultSampler.Root = AlwaysOffSampler{}
		return defaultSampler, nil
	case samplerNameParentBasedTraceIDRatio:
		r, err := ratio()
		if err != nil {
			return nil, err
		}
		defaultSampler.Root = TraceIDRatioSampler{Fraction: r}
		return defaultSampler, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownSamplerName, samplerName)
	}
}
