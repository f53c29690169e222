package otel

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// endpointExcluder provides a sampler that excludes the configured routes
// from tracing while sampling everything else at the given probability.
type endpointExcluder struct {
	endpoints   map[string]struct{}
	probability float64
}

func newEndpointExcluder(endpoints map[string]struct{}, probability float64) endpointExcluder {
	return endpointExcluder{
		endpoints:   endpoints,
		probability: probability,
	}
}

// ShouldSample implements the sampler interface. It prevents the specified
// endpoints from being traced.
func (ee endpointExcluder) ShouldSample(parameters sdktrace.SamplingParameters) sdktrace.SamplingResult {
	for i := range parameters.Attributes {
		if parameters.Attributes[i].Key == "http.target" {
			if _, exists := ee.endpoints[parameters.Attributes[i].Value.AsString()]; exists {
				return sdktrace.SamplingResult{Decision: sdktrace.Drop}
			}
		}
	}

	return sdktrace.TraceIDRatioBased(ee.probability).ShouldSample(parameters)
}

// Description implements the sampler interface.
func (ee endpointExcluder) Description() string {
	return fmt.Sprintf("endpointExcluder{probability:%f}", ee.probability)
}
