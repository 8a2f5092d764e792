package taskflow

// Span attribute keys used throughout step and task execution tracing.
// Centralized here so the scheduler and any Tracer implementation agree on
// naming.
const (
	AttrStepID       = "step.id"
	AttrStepName     = "step.name"
	AttrStepTool     = "step.tool"
	AttrStepToolUsed = "step.tool_used"
	AttrStepStatus   = "step.status"
	AttrStepRetries  = "step.retry_count"

	AttrFlowName = "flow.name"
)
