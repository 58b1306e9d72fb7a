// Package config handles loading, merging, and validating Warden configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure. It is built once per
// invocation and passed into the pipeline as an immutable value.
type Config struct {
	// Extends allows inheriting from a remote config (e.g., "org/repo@branch").
	Extends string `yaml:"extends,omitempty"`

	// Token authenticates against the GitHub API.
	Token string `yaml:"token,omitempty"`

	// Approval configures the verification policy.
	Approval ApprovalConfig `yaml:"approval"`

	// Filter gates whether the check applies to a pull request at all.
	Filter FilterConfig `yaml:"filter"`

	// Workflow is a preset workflow name (e.g., "pr-approval").
	Workflow string `yaml:"workflow,omitempty"`

	// Steps is a custom list of pipeline steps (overrides workflow).
	Steps []string `yaml:"steps,omitempty"`
}

// ApprovalConfig holds the approval verification policy.
type ApprovalConfig struct {
	// ApprovalTemplate is the phrase a maintainer must comment, with a
	// {user} placeholder for the pull request author.
	ApprovalTemplate string `yaml:"approval_template"`

	// ReferenceTemplate is the text a pull request body must carry, with a
	// {url} placeholder for the approval comment URL.
	ReferenceTemplate string `yaml:"reference_template"`

	// AutocloseMessage is the explanation posted before closing an
	// unapproved pull request.
	AutocloseMessage string `yaml:"autoclose_message"`

	// ExcludePastContributors skips verification for authors already in
	// the contributor roster.
	ExcludePastContributors bool `yaml:"exclude_past_contributors"`
}

// FilterConfig holds the pre-filter thresholds.
type FilterConfig struct {
	// ForceValidateOwnerPRs runs the check even when the author is the
	// repository owner.
	ForceValidateOwnerPRs bool `yaml:"force_validate_owner_prs"`

	// MinDiffFiles skips pull requests touching fewer files.
	MinDiffFiles int `yaml:"min_diff_files"`

	// MinDiffLines skips pull requests changing fewer lines.
	MinDiffLines int `yaml:"min_diff_lines"`
}

// DefaultAutocloseMessage is posted when no custom message is configured.
const DefaultAutocloseMessage = "This pull request is not backed by a maintainer approval and has been " +
	"closed automatically. Please open an issue describing the change, ask a " +
	"maintainer to comment their approval there, and include a link to that " +
	"comment in your pull request description."

// Load reads a config file from the given path and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := parseRaw(data)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func parseRaw(data []byte) (*Config, error) {
	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// LoadWithInheritance loads a config and resolves the 'extends' chain.
// The fetcher function is used to retrieve remote configs.
func LoadWithInheritance(path string, fetcher func(ref string) ([]byte, error)) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if cfg.Extends == "" {
		return cfg, nil
	}

	parentData, err := fetcher(cfg.Extends)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch parent config '%s': %w", cfg.Extends, err)
	}

	parentCfg, err := parseRaw(parentData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse parent config: %w", err)
	}

	// Merge: child overrides parent
	merged := mergeConfigs(parentCfg, cfg)
	merged.ApplyDefaults()

	return merged, nil
}

// FindConfigPath searches for a config file in standard locations.
func FindConfigPath(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	// Search in common locations
	candidates := []string{
		".github/warden.yaml",
		".github/warden.yml",
		".warden.yaml",
		".warden.yml",
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			abs, _ := filepath.Abs(c)
			return abs
		}
	}

	return ""
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Approval.ApprovalTemplate == "" {
		c.Approval.ApprovalTemplate = "{user} PR approved"
	}
	if c.Approval.ReferenceTemplate == "" {
		c.Approval.ReferenceTemplate = "Approval: {url}"
	}
	if c.Approval.AutocloseMessage == "" {
		c.Approval.AutocloseMessage = DefaultAutocloseMessage
	}
}

// ValidationError reports configuration that cannot drive a check. It is
// fatal: no verification or remediation runs against a broken config.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + e.Reason
}

// Validate checks the template invariants and required settings. It must
// pass before any network call is made.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return &ValidationError{Reason: "github token is required"}
	}
	if !strings.Contains(c.Approval.ApprovalTemplate, "{user}") {
		return &ValidationError{Reason: fmt.Sprintf("approval template %q must contain a {user} placeholder", c.Approval.ApprovalTemplate)}
	}
	if strings.Count(c.Approval.ReferenceTemplate, "{url}") != 1 {
		return &ValidationError{Reason: fmt.Sprintf("reference template %q must contain exactly one {url} placeholder", c.Approval.ReferenceTemplate)}
	}
	if c.Filter.MinDiffFiles < 0 {
		return &ValidationError{Reason: "min_diff_files cannot be negative"}
	}
	if c.Filter.MinDiffLines < 0 {
		return &ValidationError{Reason: "min_diff_lines cannot be negative"}
	}
	return nil
}

// mergeConfigs merges a child config onto a parent config.
// Non-zero values in child override parent.
func mergeConfigs(parent, child *Config) *Config {
	result := *parent

	if child.Token != "" {
		result.Token = child.Token
	}
	if child.Workflow != "" {
		result.Workflow = child.Workflow
	}
	if len(child.Steps) > 0 {
		result.Steps = child.Steps
	}

	// Approval: override if set
	if child.Approval.ApprovalTemplate != "" {
		result.Approval.ApprovalTemplate = child.Approval.ApprovalTemplate
	}
	if child.Approval.ReferenceTemplate != "" {
		result.Approval.ReferenceTemplate = child.Approval.ReferenceTemplate
	}
	if child.Approval.AutocloseMessage != "" {
		result.Approval.AutocloseMessage = child.Approval.AutocloseMessage
	}
	// ExcludePastContributors: always take the child value so it can
	// override parent true -> false and vice versa
	result.Approval.ExcludePastContributors = child.Approval.ExcludePastContributors

	// Filter: override if non-zero
	result.Filter.ForceValidateOwnerPRs = child.Filter.ForceValidateOwnerPRs
	if child.Filter.MinDiffFiles != 0 {
		result.Filter.MinDiffFiles = child.Filter.MinDiffFiles
	}
	if child.Filter.MinDiffLines != 0 {
		result.Filter.MinDiffLines = child.Filter.MinDiffLines
	}

	return &result
}

// ParseExtendsRef parses "org/repo@branch" into components.
func ParseExtendsRef(ref string) (org, repo, branch, path string, err error) {
	// Format: org/repo@branch or org/repo@branch:path
	parts := strings.SplitN(ref, "@", 2)
	if len(parts) != 2 {
		return "", "", "", "", fmt.Errorf("invalid extends reference: %s (expected org/repo@branch)", ref)
	}

	orgRepo := strings.SplitN(parts[0], "/", 2)
	if len(orgRepo) != 2 {
		return "", "", "", "", fmt.Errorf("invalid extends reference: %s (expected org/repo)", ref)
	}

	org = orgRepo[0]
	repo = orgRepo[1]

	// Check for path
	branchPath := strings.SplitN(parts[1], ":", 2)
	branch = branchPath[0]
	if len(branchPath) == 2 {
		path = branchPath[1]
	} else {
		path = ".github/warden.yaml" // default path
	}

	return org, repo, branch, path, nil
}
