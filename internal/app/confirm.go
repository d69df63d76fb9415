package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"ReviewerOutreach/internal/ports"
)

// PromptConfirmer asks the operator on a terminal before live sending.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

var _ ports.Confirmer = (*PromptConfirmer)(nil)

// NewPromptConfirmer reads answers from in and writes prompts to out.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm accepts "yes" in any case or "SEND"; anything else, including end
// of input, declines.
func (c *PromptConfirmer) Confirm(ctx context.Context, pending int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(c.out, "\nAbout to send %d real emails. Type 'yes' or 'SEND' to confirm: ", pending)

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("read confirmation: %w", err)
	}

	answer := strings.TrimSpace(line)
	return answer == "SEND" || strings.EqualFold(answer, "yes"), nil
}
