package observability

import "go.opentelemetry.io/otel/sdk/resource"

// ProbeBuildResource exposes buildResource for external tests.
func ProbeBuildResource(cfg Config) (*resource.Resource, error) {
	return buildResource(cfg)
}

// ProbeSampler exposes the sampler description selected for cfg.
func ProbeSampler(cfg Config) string {
	return selectSampler(cfg).Description()
}
