package channel

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var chunkNoticeStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("241")).
	Faint(true)

// Console writes replies to a terminal, rendering markdown and
// splitting messages that exceed the outbound limit.
type Console struct {
	out          io.Writer
	renderer     *glamour.TermRenderer
	messageLimit int
	chunkSize    int
}

// ConsoleOptions configures a Console.
type ConsoleOptions struct {
	// MessageLimit is the largest message the channel will send whole.
	MessageLimit int

	// ChunkSize is the piece size used when a message exceeds the limit.
	ChunkSize int
}

// NewConsole creates a console channel writing to out. Markdown
// rendering degrades to plain text when the renderer cannot be built,
// such as when stdout is not a terminal.
func NewConsole(out io.Writer, opts ConsoleOptions) *Console {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		renderer = nil
	}

	return &Console{
		out:          out,
		renderer:     renderer,
		messageLimit: opts.MessageLimit,
		chunkSize:    opts.ChunkSize,
	}
}

// Send renders and writes one reply, chunking oversized messages in
// order so the operator can reassemble them by concatenation.
func (c *Console) Send(sessionID, text string) error {
	if c.messageLimit > 0 && len(text) > c.messageLimit {
		chunks := Chunk(text, c.chunkSize)
		for i, chunk := range chunks {
			if err := c.write(chunk); err != nil {
				return fmt.Errorf("send chunk %d/%d: %w", i+1, len(chunks), err)
			}
			if i < len(chunks)-1 {
				notice := chunkNoticeStyle.Render(fmt.Sprintf("(continued %d/%d)", i+1, len(chunks)))
				fmt.Fprintln(c.out, notice)
			}
		}
		return nil
	}

	return c.write(text)
}

func (c *Console) write(text string) error {
	if c.renderer != nil {
		rendered, err := c.renderer.Render(text)
		if err == nil {
			_, werr := io.WriteString(c.out, rendered)
			return werr
		}
	}

	_, err := fmt.Fprintln(c.out, text)
	return err
}
