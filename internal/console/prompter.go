// internal/console/prompter.go
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	questionColor = lipgloss.Color("#C678DD")
	noticeColor   = lipgloss.Color("#E5C07B")
	inputColor    = lipgloss.Color("#61AFEF")
)

type line struct {
	text string
	err  error
}

// Prompter talks to the user on a terminal. Output is colored only when out
// is a terminal that supports it.
type Prompter struct {
	in  io.Reader
	out io.Writer

	question lipgloss.Style
	notice   lipgloss.Style
	input    lipgloss.Style

	mu    sync.Mutex
	start sync.Once
	lines chan line
}

func New(in io.Reader, out io.Writer) *Prompter {
	r := lipgloss.NewRenderer(out)
	return &Prompter{
		in:       in,
		out:      out,
		question: r.NewStyle().Foreground(questionColor).Bold(true),
		notice:   r.NewStyle().Foreground(noticeColor),
		input:    r.NewStyle().Foreground(inputColor),
		lines:    make(chan line),
	}
}

// readLoop feeds input lines to lines until the input ends. A final line
// without a newline is still delivered.
func (p *Prompter) readLoop() {
	reader := bufio.NewReader(p.in)
	for {
		text, err := reader.ReadString('\n')
		if err != nil {
			if text != "" {
				p.lines <- line{text: text}
			}
			p.lines <- line{err: err}
			close(p.lines)
			return
		}
		p.lines <- line{text: strings.TrimRight(text, "\r\n")}
	}
}

// next waits for the next input line. Closed input keeps returning io.EOF.
func (p *Prompter) next(ctx context.Context) (string, error) {
	p.start.Do(func() { go p.readLoop() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	}
}

func (p *Prompter) print(style lipgloss.Style, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, style.Render(text))
}

// Confirm asks a yes/no question. Only "Y" (any case) is a yes.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	p.print(p.question, question)
	p.print(p.input, "[Y] for yes, any other key for no.")
	answer, err := p.next(ctx)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(answer), "Y"), nil
}

// ReadLine shows prompt and returns the next input line. It returns io.EOF
// once the input is closed.
func (p *Prompter) ReadLine(ctx context.Context, prompt string) (string, error) {
	p.print(p.input, prompt)
	return p.next(ctx)
}

func (p *Prompter) Notify(message string) {
	p.print(p.notice, message)
}
