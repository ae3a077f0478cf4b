package types

// Mode identifies which backend invocation style a delivery targets.
type Mode string

const (
	ModeDynamicChat     Mode = "dynamic-chat"
	ModeDynamicWorkflow Mode = "dynamic-workflow"
	ModeStaticChat      Mode = "static-chat"
	ModeStaticWorkflow  Mode = "static-workflow"
)

// IsChat reports whether the mode invokes a conversational application.
func (m Mode) IsChat() bool {
	return m == ModeDynamicChat || m == ModeStaticChat
}

// IsWorkflow reports whether the mode invokes a batch workflow application.
func (m Mode) IsWorkflow() bool {
	return m == ModeDynamicWorkflow || m == ModeStaticWorkflow
}

// IsStatic reports whether the target application id came from configuration
// rather than the request path.
func (m Mode) IsStatic() bool {
	return m == ModeStaticChat || m == ModeStaticWorkflow
}

// RouteDecision is derived once per request from the path and configuration
// and is immutable thereafter.
type RouteDecision struct {
	Mode  Mode
	AppID string
}
