package llm

// Operation names a gateway use case.
type Operation string

const (
	OpGenerateHypothesis  Operation = "generate_hypothesis"
	OpSimulateCompression Operation = "simulate_compression"
	OpCreateChat          Operation = "create_chat"
	OpSendMessage         Operation = "send_message"
	OpGenerateVideo       Operation = "generate_video"
)

// ErrorPolicy states how an operation reports backend failures to its caller.
type ErrorPolicy string

const (
	// ErrorsAsText operations never return an error; failures become display text.
	ErrorsAsText ErrorPolicy = "errors_as_text"
	// ErrorsPropagate operations return backend failures to the caller.
	ErrorsPropagate ErrorPolicy = "propagate"
)

var operationPolicies = map[Operation]ErrorPolicy{
	OpGenerateHypothesis:  ErrorsAsText,
	OpSimulateCompression: ErrorsAsText,
	OpCreateChat:          ErrorsPropagate,
	OpSendMessage:         ErrorsPropagate,
	OpGenerateVideo:       ErrorsPropagate,
}

// ErrorPolicy returns the policy of o. Unknown operations propagate.
func (o Operation) ErrorPolicy() ErrorPolicy {
	if p, ok := operationPolicies[o]; ok {
		return p
	}
	return ErrorsPropagate
}
