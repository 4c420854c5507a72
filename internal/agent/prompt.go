package agent

import (
	"fmt"
	"strings"

	"warden/internal/session"
)

// systemPrompt builds the per-call system prompt. The active target is
// re-read on every call so the model's narration follows context switches
// made earlier in the same turn.
func systemPrompt(sess *session.Session, toolsAttached bool) string {
	var b strings.Builder

	b.WriteString("You are warden, an operations agent controlled by a human operator over chat. ")
	b.WriteString("You inspect servers, read logs, query data and browse the web on their behalf.\n\n")

	fmt.Fprintf(&b, "Active target: %s.\n", sess.Target.DisplayName)
	b.WriteString("All commands and tools apply to the active target unless told otherwise.\n\n")

	if toolsAttached {
		b.WriteString("Use tools to gather facts before answering. ")
		b.WriteString("Destructive actions are queued for the operator's explicit confirmation; ")
		b.WriteString("relay the confirmation prompt instead of retrying the action.\n")
		b.WriteString("Produce a final answer once you have enough information — do not call tools indefinitely.\n")
	} else {
		b.WriteString("Answer in plain text. Tools are not available for this reply.\n")
	}

	return b.String()
}
