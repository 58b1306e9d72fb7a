package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Inputs are the raw string-valued action inputs as the runner provides
// them. Declared inputs always arrive in the environment, possibly as empty
// strings, so every field stays a string here and conversion happens in
// Apply.
type Inputs struct {
	Token                   string `env:"INPUT_GITHUB_TOKEN"`
	ApprovalTemplate        string `env:"INPUT_APPROVAL_STR"`
	ReferenceTemplate       string `env:"INPUT_REFERENCE_STR"`
	AutocloseMessage        string `env:"INPUT_PR_AUTOCLOSE_MESSAGE"`
	ExcludePastContributors string `env:"INPUT_EXCLUDE_PAST_CONTRIBUTORS"`
	ForceValidateOwnerPRs   string `env:"INPUT_FORCE_VALIDATE_OWNER_PRS"`
	MinDiffFiles            string `env:"INPUT_MIN_DIFF_FILES"`
	MinDiffLines            string `env:"INPUT_MIN_DIFF_LINES"`
}

// InputsFromEnv reads the action inputs from the environment.
func InputsFromEnv(ctx context.Context) (*Inputs, error) {
	var in Inputs
	if err := envconfig.Process(ctx, &in); err != nil {
		return nil, fmt.Errorf("failed to read action inputs: %w", err)
	}
	return &in, nil
}

// Apply overlays non-empty inputs onto cfg, converting booleans and
// integers. The input layer wins over the config file.
func (in *Inputs) Apply(cfg *Config) error {
	if in.Token != "" {
		cfg.Token = in.Token
	}
	if in.ApprovalTemplate != "" {
		cfg.Approval.ApprovalTemplate = in.ApprovalTemplate
	}
	if in.ReferenceTemplate != "" {
		cfg.Approval.ReferenceTemplate = in.ReferenceTemplate
	}
	if in.AutocloseMessage != "" {
		cfg.Approval.AutocloseMessage = in.AutocloseMessage
	}

	if in.ExcludePastContributors != "" {
		v, err := parseBoolInput("exclude_past_contributors", in.ExcludePastContributors)
		if err != nil {
			return err
		}
		cfg.Approval.ExcludePastContributors = v
	}
	if in.ForceValidateOwnerPRs != "" {
		v, err := parseBoolInput("force_validate_owner_prs", in.ForceValidateOwnerPRs)
		if err != nil {
			return err
		}
		cfg.Filter.ForceValidateOwnerPRs = v
	}
	if in.MinDiffFiles != "" {
		v, err := parseIntInput("min_diff_files", in.MinDiffFiles)
		if err != nil {
			return err
		}
		cfg.Filter.MinDiffFiles = v
	}
	if in.MinDiffLines != "" {
		v, err := parseIntInput("min_diff_lines", in.MinDiffLines)
		if err != nil {
			return err
		}
		cfg.Filter.MinDiffLines = v
	}

	return nil
}

func parseBoolInput(name, raw string) (bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, &ValidationError{Reason: fmt.Sprintf("input %s: %q is not a boolean", name, raw)}
	}
	return v, nil
}

func parseIntInput(name, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ValidationError{Reason: fmt.Sprintf("input %s: %q is not an integer", name, raw)}
	}
	return v, nil
}
