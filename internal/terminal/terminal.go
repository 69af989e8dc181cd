// Package terminal is the interactive line-based front-end for the UI loop.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/williamchen0301-sh/my-weather-portfolio/internal/ui"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/view"
)

// Controller is the part of *ui.Loop the terminal drives.
type Controller interface {
	Trigger(city string) error
	Dismiss() error
	Done() <-chan struct{}
}

// Terminal renders loop updates to out and turns input lines into triggers.
// It implements ui.Renderer.
type Terminal struct {
	out         io.Writer
	defaultCity string

	mu      sync.Mutex // guards out
	settled chan ui.Update

	ready     chan struct{} // closed after the first render
	readyOnce sync.Once
}

// New returns a Terminal writing to out. defaultCity is shown in the prompt.
func New(out io.Writer, defaultCity string) *Terminal {
	return &Terminal{
		out:         out,
		defaultCity: defaultCity,
		settled:     make(chan ui.Update, 1),
		ready:       make(chan struct{}),
	}
}

// Render draws u. Called on the loop goroutine.
func (t *Terminal) Render(u ui.Update) {
	t.mu.Lock()
	switch u.State {
	case ui.Idle:
		if u.Seq <= 1 {
			t.writePanel(u.View)
		}
	case ui.Fetching:
		query := strings.TrimSpace(u.Query)
		if query == "" {
			query = t.defaultCity
		}
		fmt.Fprintf(t.out, "Fetching weather for %s...\n", query)
	case ui.Displaying:
		t.writePanel(u.View)
	case ui.ErrorShown:
		if u.Alert != nil {
			t.writeAlert(*u.Alert)
		}
	}
	t.mu.Unlock()
	t.readyOnce.Do(func() { close(t.ready) })

	if u.State == ui.Displaying || u.State == ui.ErrorShown {
		// Keep only the newest settled update.
		select {
		case <-t.settled:
		default:
		}
		t.settled <- u
	}
}

// Run reads lines from in until EOF, a quit command, or ctx is done. Each line triggers a
// lookup and waits for it to settle; while an alert is shown the next line dismisses it.
func (t *Terminal) Run(ctx context.Context, in io.Reader, ctl Controller) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	// The loop renders the initial panel on its own goroutine; prompt after it.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ctl.Done():
		return nil
	case <-t.ready:
	}

	alertOpen := false
	for {
		t.prompt(alertOpen)

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ctl.Done():
			return nil
		case err := <-readErr:
			return err
		case line = <-lines:
		}

		if alertOpen {
			if err := ctl.Dismiss(); err != nil && !errors.Is(err, ui.ErrNoAlert) {
				return stopErr(err)
			}
			alertOpen = false
			continue
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case ":q", "quit", "exit":
			return nil
		}

		t.drainSettled()
		if err := ctl.Trigger(line); err != nil {
			if errors.Is(err, ui.ErrAlertOpen) {
				alertOpen = true
				continue
			}
			return stopErr(err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ctl.Done():
			return nil
		case u := <-t.settled:
			alertOpen = u.State == ui.ErrorShown
		}
	}
}

func stopErr(err error) error {
	if errors.Is(err, ui.ErrStopped) {
		return nil
	}
	return err
}

func (t *Terminal) drainSettled() {
	select {
	case <-t.settled:
	default:
	}
}

func (t *Terminal) prompt(alertOpen bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if alertOpen {
		fmt.Fprint(t.out, "Press Enter to dismiss. ")
		return
	}
	fmt.Fprintf(t.out, "City [%s]: ", t.defaultCity)
}

func (t *Terminal) writePanel(s view.Snapshot) {
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, "Weather App")
	fmt.Fprintln(t.out, strings.Repeat("─", 40))
	fmt.Fprintf(t.out, "  %s\n", s.City)
	fmt.Fprintf(t.out, "  %s\n", s.Temperature)
	fmt.Fprintf(t.out, "  %s\n", s.Condition)
	fmt.Fprintf(t.out, "  %s\n", s.Details)
	fmt.Fprintln(t.out, strings.Repeat("─", 40))
	fmt.Fprintf(t.out, "%s\n\n", s.Status)
}

func (t *Terminal) writeAlert(a ui.Alert) {
	width := utf8.RuneCountInString(a.Title)
	if n := utf8.RuneCountInString(a.Message); n > width {
		width = n
	}
	border := "+" + strings.Repeat("-", width+2) + "+"
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, border)
	fmt.Fprintf(t.out, "| %s%s |\n", a.Title, strings.Repeat(" ", width-utf8.RuneCountInString(a.Title)))
	fmt.Fprintln(t.out, border)
	fmt.Fprintf(t.out, "| %s%s |\n", a.Message, strings.Repeat(" ", width-utf8.RuneCountInString(a.Message)))
	fmt.Fprintln(t.out, border)
}
