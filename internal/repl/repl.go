// Package repl is the line-oriented interactive query loop.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ragloc/internal/domain"
)

// State is the loop state.
type State int

const (
	AwaitingInput State = iota
	Terminated
)

var exitWords = map[string]struct{}{"exit": {}, "quit": {}}

// IsExit reports whether line is an exit keyword, ignoring case and surrounding space.
func IsExit(line string) bool {
	_, ok := exitWords[strings.ToLower(strings.TrimSpace(line))]
	return ok
}

// Loop reads one query per line and prints ranked chunks and, when
// generation is enabled, an answer.
type Loop struct {
	service domain.RAGService
	topK    int
	out     io.Writer
	state   State

	prompt lipgloss.Style
	header lipgloss.Style
	score  lipgloss.Style
	answer lipgloss.Style
}

func New(service domain.RAGService, topK int, out io.Writer) *Loop {
	r := lipgloss.NewRenderer(out)
	return &Loop{
		service: service,
		topK:    topK,
		out:     out,
		state:   AwaitingInput,
		prompt:  r.NewStyle().Foreground(lipgloss.Color("12")),
		header:  r.NewStyle().Bold(true),
		score:   r.NewStyle().Foreground(lipgloss.Color("8")),
		answer:  r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	}
}

// State returns the current loop state.
func (l *Loop) State() State { return l.state }

// Run processes lines from in until an exit keyword, end of input, an
// error from the service, or cancellation of ctx. Service errors end the loop
// and are returned; cancellation ends it cleanly.
func (l *Loop) Run(ctx context.Context, in io.Reader) error {
	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)
	for l.state == AwaitingInput {
		fmt.Fprint(l.out, "\n"+l.prompt.Render("Enter a query (or 'quit' to exit): "))
		var ln line
		select {
		case <-ctx.Done():
			l.state = Terminated
			fmt.Fprintln(l.out)
			return nil
		case ln = <-lines:
		}
		if ln.eof {
			l.state = Terminated
			fmt.Fprintln(l.out)
			return ln.err
		}
		query := strings.TrimSpace(ln.text)
		if IsExit(query) {
			l.state = Terminated
			fmt.Fprintln(l.out, "Goodbye!")
			return nil
		}
		if err := l.handle(ctx, query); err != nil {
			l.state = Terminated
			if ctx.Err() != nil {
				fmt.Fprintln(l.out)
				return nil
			}
			return err
		}
	}
	return nil
}

type line struct {
	text string
	eof  bool
	err  error
}

// readLines scans in on its own goroutine so a blocked read never holds up
// cancellation. The goroutine exits once done is closed or input ends.
func readLines(in io.Reader, done <-chan struct{}) <-chan line {
	ch := make(chan line)
	go func() {
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case ch <- line{text: sc.Text()}:
			case <-done:
				return
			}
		}
		select {
		case ch <- line{eof: true, err: sc.Err()}:
		case <-done:
		}
	}()
	return ch
}

func (l *Loop) handle(ctx context.Context, query string) error {
	results, err := l.service.Query(ctx, query, l.topK)
	if err != nil {
		return fmt.Errorf("query %q: %w", query, err)
	}
	fmt.Fprintln(l.out)
	if len(results) == 0 {
		fmt.Fprintln(l.out, l.header.Render("No results."))
	} else {
		fmt.Fprintln(l.out, l.header.Render("Top context:"))
		for i, r := range results {
			fmt.Fprintf(l.out, "%d. %s %s\n", i+1, l.score.Render(fmt.Sprintf("(score=%.3f)", r.Score)), r.Chunk.Text)
		}
	}
	if !l.service.GenerationEnabled() {
		return nil
	}
	ans, err := l.service.Answer(ctx, query, results)
	if err != nil {
		return fmt.Errorf("answer %q: %w", query, err)
	}
	fmt.Fprintf(l.out, "\n%s %s\n", l.answer.Render("Answer:"), ans)
	return nil
}
