package steps

import (
	"github.com/wardengh/warden-bot/internal/core/pipeline"
)

// RegisterAll registers all built-in steps with the registry.
func RegisterAll(r *pipeline.Registry) {
	r.Register("gatekeeper", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewGatekeeper(deps), nil
	})

	r.Register("contributor_gate", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewContributorGate(deps), nil
	})

	r.Register("reference_extract", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewReferenceExtract(deps), nil
	})

	r.Register("approval_verify", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewApprovalVerify(deps), nil
	})
}
