package deployer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Confirmer is the yes/no capability the deployer consults at its two gates.
// Implementations must treat anything but an explicit affirmative as a decline.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// LineConfirmer reads a single line and affirms on a case-insensitive "y".
// It blocks until a line of input arrives or the context is cancelled.
type LineConfirmer struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewLineConfirmer builds a confirmer reading from the provided reader,
// defaulting to standard input.
func NewLineConfirmer(r io.Reader) *LineConfirmer {
	if r == nil {
		r = os.Stdin
	}

	return &LineConfirmer{
		reader: bufio.NewReader(r),
		writer: os.Stdout,
	}
}

// Confirm prints the prompt and waits for an answer.
// EOF counts as a decline so piped input cannot hang a run.
// Context cancellation (an interrupt at either gate) aborts the wait with
// ctx.Err() so the caller can roll back instead of hanging on stdin.
func (c *LineConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	fmt.Fprintf(c.writer, "%s (y/N): ", prompt)

	type answer struct {
		line string
		err  error
	}

	// Buffered so the reading goroutine never leaks a blocked send
	// when cancellation wins the race.
	answers := make(chan answer, 1)

	go func() {
		line, err := c.reader.ReadString('\n')
		answers <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(c.writer)
		return false, ctx.Err()
	case got := <-answers:
		if got.err != nil && got.line == "" {
			return false, nil
		}

		return strings.ToLower(strings.TrimSpace(got.line)) == "y", nil
	}
}

// AutoConfirmer affirms every prompt. Used for --yes and in automated tests.
type AutoConfirmer struct{}

// NewAutoConfirmer returns a confirmer that always answers yes.
func NewAutoConfirmer() *AutoConfirmer {
	return &AutoConfirmer{}
}

// Confirm always affirms.
func (c *AutoConfirmer) Confirm(_ context.Context, _ string) (bool, error) {
	return true, nil
}

var (
	_ Confirmer = (*LineConfirmer)(nil)
	_ Confirmer = (*AutoConfirmer)(nil)
)
