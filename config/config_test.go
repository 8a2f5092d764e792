package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleDoc = `
name: Sample Flow
description: exercises substitution and defaults
steps:
  - id: fetch
    tool: http_fetch
    parameters:
      url: "${FETCH_URL:https://example.com}"
      token: "${MISSING_TOKEN}"
  - id: parse
    name: Parse document
    tool: docparse
    dependencies: [fetch]
    retry_count: 5
    retry_delay: 2.5
    fallback_tools: [ocr]
    condition: "dep_fetch"
parallel_groups:
  - [fetch]
`

func TestParseBasicDocument(t *testing.T) {
	flow, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	require.Equal(t, "Sample Flow", flow.Name)
	require.Len(t, flow.Steps, 2)

	fetch := flow.Steps[0]
	require.Equal(t, "fetch", fetch.ID)
	require.Equal(t, "fetch", fetch.Name, "name defaults to id")
	require.Equal(t, defaultRetryCount, fetch.RetryCount)
	require.Equal(t, defaultRetryDelay, fetch.RetryDelay)

	parse := flow.Steps[1]
	require.Equal(t, "Parse document", parse.Name)
	require.Equal(t, 5, parse.RetryCount)
	require.Equal(t, 2500*time.Millisecond, parse.RetryDelay)
	require.Equal(t, []string{"fetch"}, parse.Dependencies)
	require.Equal(t, []string{"ocr"}, parse.FallbackTools)
	require.Equal(t, "dep_fetch", parse.Condition)
}

func TestParseStepRequiresID(t *testing.T) {
	_, err := Parse([]byte(`
steps:
  - tool: http_fetch
`))
	require.Error(t, err)
}

func TestParseDefaultsWhenFieldsMissing(t *testing.T) {
	flow, err := Parse([]byte(`
steps:
  - id: only
    tool: t
`))
	require.NoError(t, err)
	require.Equal(t, "Unnamed Task", flow.Name)
	require.Empty(t, flow.Description)
}

func TestEnvVarSubstitutionUsesEnvironment(t *testing.T) {
	t.Setenv("FETCH_URL", "https://internal.example.com")

	flow, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	require.Equal(t, "https://internal.example.com", flow.Steps[0].Parameters["url"])
}

func TestEnvVarSubstitutionFallsBackToDefault(t *testing.T) {
	require.NoError(t, os.Unsetenv("FETCH_URL"))

	flow, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	require.Equal(t, "https://example.com", flow.Steps[0].Parameters["url"])
}

func TestEnvVarSubstitutionLeavesUnresolvedTextWhenNoDefault(t *testing.T) {
	require.NoError(t, os.Unsetenv("MISSING_TOKEN"))

	flow, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	require.Equal(t, "${MISSING_TOKEN}", flow.Steps[0].Parameters["token"])
}

func TestEnvVarSubstitutionEmptyDefaultAlsoLeavesUnresolved(t *testing.T) {
	require.NoError(t, os.Unsetenv("ABSENT"))

	out := substituteInString("prefix-${ABSENT:}-suffix")
	require.Equal(t, "prefix-${ABSENT:}-suffix", out)
}

func TestEnvVarSubstitutionIsRecursive(t *testing.T) {
	t.Setenv("NESTED", "resolved")

	flow, err := Parse([]byte(`
steps:
  - id: a
    tool: t
    parameters:
      list:
        - "${NESTED}"
        - plain
      nested:
        inner: "${NESTED}"
`))
	require.NoError(t, err)

	params := flow.Steps[0].Parameters
	list := params["list"].([]any)
	require.Equal(t, "resolved", list[0])
	require.Equal(t, "plain", list[1])

	nested := params["nested"].(map[string]any)
	require.Equal(t, "resolved", nested["inner"])
}

func TestValidateDuplicateStepIDs(t *testing.T) {
	flow := &TaskFlowConfig{Steps: []StepConfig{{ID: "a", Tool: "t"}, {ID: "a", Tool: "t"}}}
	errs := Validate(flow)
	require.Contains(t, errs, "duplicate step ids found")
}

func TestValidateDanglingDependency(t *testing.T) {
	flow := &TaskFlowConfig{Steps: []StepConfig{{ID: "a", Tool: "t", Dependencies: []string{"ghost"}}}}
	errs := Validate(flow)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "non-existent step")
}

func TestValidateDanglingParallelGroupMember(t *testing.T) {
	flow := &TaskFlowConfig{
		Steps:          []StepConfig{{ID: "a", Tool: "t"}},
		ParallelGroups: [][]string{{"a", "ghost"}},
	}
	errs := Validate(flow)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "parallel group")
}

func TestValidateEmptyTool(t *testing.T) {
	flow := &TaskFlowConfig{Steps: []StepConfig{{ID: "a"}}}
	errs := Validate(flow)
	require.Contains(t, errs, `step "a" does not specify a tool`)
}

func TestValidateAcceptsWellFormedFlow(t *testing.T) {
	flow := &TaskFlowConfig{
		Steps: []StepConfig{
			{ID: "a", Tool: "t"},
			{ID: "b", Tool: "t", Dependencies: []string{"a"}},
		},
		ParallelGroups: [][]string{{"a"}},
	}
	require.Empty(t, Validate(flow))
}
