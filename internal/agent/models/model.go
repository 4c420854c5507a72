package models

// Message represents a single entry in the conversation history.
type Message struct {
	Role    string // "user", "assistant", "model", "function", "system"
	Content string

	// For model messages that requested tool calls
	ToolCalls []ToolCall

	// For function messages carrying tool results
	ToolResults []ToolResult
}

// ToolCall represents a structured tool invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult represents the outcome of a single tool execution.
type ToolResult struct {
	ID      string // Matches ToolCall.ID
	Name    string // Tool name
	Content string // Result content
	Error   string // Error message if the tool failed
}

// Result returns the content to feed back to the model: the error string
// when the tool failed, the content otherwise.
func (r ToolResult) Result() string {
	if r.Error != "" {
		return "Error: " + r.Error
	}
	return r.Content
}
