// Package config parses declarative task flow documents (YAML) into the
// typed records the scheduler consumes, resolving environment-variable
// substitutions and validating structural integrity before a flow is ever
// scheduled.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// StepConfig is an immutable descriptor of one step in a task flow.
type StepConfig struct {
	ID            string
	Name          string
	Tool          string
	Parameters    map[string]any
	Dependencies  []string
	RetryCount    int
	RetryDelay    time.Duration
	FallbackTools []string
	Condition     string
}

// TaskFlowConfig is the parsed form of a whole task flow document.
type TaskFlowConfig struct {
	Name           string
	Description    string
	Steps          []StepConfig
	ParallelGroups [][]string
}

const (
	defaultRetryCount = 3
	defaultRetryDelay = time.Second
)

// envVarPattern matches ${NAME} or ${NAME:default}.
var envVarPattern = regexp.MustCompile(`\$\{([^:}]+)(?::([^}]*))?\}`)

// Parse parses a YAML task flow document, resolving environment-variable
// substitutions in every string scalar before building typed records.
func Parse(data []byte) (*TaskFlowConfig, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid yaml configuration: %w", err)
	}

	substituted := substituteEnvVars(raw)

	doc, _ := substituted.(map[string]any)
	return parseTaskFlow(doc)
}

// ParseFile reads path and parses it as a task flow document.
func ParseFile(path string) (*TaskFlowConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("configuration file not found: %w", err)
	}
	return Parse(data)
}

func parseTaskFlow(doc map[string]any) (*TaskFlowConfig, error) {
	flow := &TaskFlowConfig{
		Name:        stringOr(doc["name"], "Unnamed Task"),
		Description: stringOr(doc["description"], ""),
	}

	rawSteps, _ := doc["steps"].([]any)
	for _, rs := range rawSteps {
		m, ok := rs.(map[string]any)
		if !ok {
			continue
		}
		step, err := parseStep(m)
		if err != nil {
			return nil, err
		}
		flow.Steps = append(flow.Steps, step)
	}

	if rawGroups, ok := doc["parallel_groups"].([]any); ok {
		for _, rg := range rawGroups {
			flow.ParallelGroups = append(flow.ParallelGroups, toStringSlice(rg))
		}
	}

	return flow, nil
}

func parseStep(m map[string]any) (StepConfig, error) {
	id := stringOr(m["id"], "")
	if id == "" {
		return StepConfig{}, fmt.Errorf("step must have an 'id'")
	}

	step := StepConfig{
		ID:           id,
		Name:         stringOr(m["name"], id),
		Tool:         stringOr(m["tool"], ""),
		Parameters:   toMap(m["parameters"]),
		Dependencies: toStringSlice(m["dependencies"]),
		RetryCount:   defaultRetryCount,
		RetryDelay:   defaultRetryDelay,
		Condition:    stringOr(m["condition"], ""),
	}

	if v, ok := toInt(m["retry_count"]); ok {
		step.RetryCount = v
	}
	if v, ok := toFloat(m["retry_delay"]); ok {
		step.RetryDelay = time.Duration(v * float64(time.Second))
	}
	if v, ok := m["fallback_tools"]; ok {
		step.FallbackTools = toStringSlice(v)
	}

	return step, nil
}

// Validate checks a parsed TaskFlowConfig against the structural invariants
// every flow must satisfy: unique step ids, dependencies and parallel-group
// members that name existing steps, and a non-empty tool per step. It
// returns human-readable error strings (empty when the flow is valid) so
// callers can pre-flight a document before scheduling it.
func Validate(flow *TaskFlowConfig) []string {
	var errs []string

	seen := make(map[string]bool, len(flow.Steps))
	ids := make(map[string]bool, len(flow.Steps))
	dup := false
	for _, step := range flow.Steps {
		if seen[step.ID] {
			dup = true
		}
		seen[step.ID] = true
		ids[step.ID] = true
	}
	if dup {
		errs = append(errs, "duplicate step ids found")
	}

	for _, step := range flow.Steps {
		for _, dep := range step.Dependencies {
			if !ids[dep] {
				errs = append(errs, fmt.Sprintf("step %q depends on non-existent step %q", step.ID, dep))
			}
		}
	}

	for _, group := range flow.ParallelGroups {
		for _, id := range group {
			if !ids[id] {
				errs = append(errs, fmt.Sprintf("parallel group contains non-existent step %q", id))
			}
		}
	}

	for _, step := range flow.Steps {
		if step.Tool == "" {
			errs = append(errs, fmt.Sprintf("step %q does not specify a tool", step.ID))
		}
	}

	return errs
}

// substituteEnvVars recursively resolves ${NAME} / ${NAME:default} in every
// string scalar under data. Maps and sequences are walked; other scalar
// types pass through unchanged.
func substituteEnvVars(data any) any {
	switch v := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = substituteEnvVars(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = substituteEnvVars(val)
		}
		return out
	case string:
		return substituteInString(v)
	default:
		return data
	}
}

// substituteInString resolves every ${NAME}/${NAME:default} occurrence in
// text. A variable present in the environment always wins. Otherwise a
// non-empty default is used. If neither is available, the original
// "${NAME...}" text is left in place and a warning is logged — mirroring
// the behavior of the original Python parser, which never silently drops
// to an empty string.
func substituteInString(text string) string {
	return envVarPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		name, def := sub[1], sub[2]

		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		if def != "" {
			return def
		}
		slog.Warn("environment variable not found and no default provided", "name", name)
		return match
	})
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func toMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func toStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
