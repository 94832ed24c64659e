// Package stopkey cancels a run when the operator presses the stop key.
package stopkey

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

const ctrlC = 0x03

// Watcher reads the terminal until the stop key arrives
type Watcher struct {
	key     rune
	restore func() error
	done    chan struct{}
}

// Watch starts watching in for key and calls stop once when it is pressed.
// On a terminal single keystrokes are read in raw mode; otherwise input is
// read a line at a time and a line holding just the key counts.
func Watch(ctx context.Context, in *os.File, key string, stop func()) (*Watcher, error) {
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError || size != len(key) {
		return nil, errors.Errorf("stop key must be a single character, got %q", key)
	}

	w := &Watcher{
		key:     unicode.ToLower(r),
		restore: func() error { return nil },
		done:    make(chan struct{}),
	}

	raw := false
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, errors.Wrap(err, "failed to put terminal in raw mode")
		}
		if err := keepOutputProcessing(fd); err != nil {
			term.Restore(fd, state)
			return nil, errors.Wrap(err, "failed to keep terminal output processing")
		}
		raw = true
		w.restore = func() error { return term.Restore(fd, state) }
	}

	go w.watch(ctx, in, raw, stop)
	return w, nil
}

// Close restores the terminal. It is safe to call more than once.
func (w *Watcher) Close() error {
	restore := w.restore
	w.restore = func() error { return nil }
	return restore()
}

// Done is closed once the watcher has stopped reading
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) watch(ctx context.Context, r io.Reader, raw bool, stop func()) {
	defer close(w.done)

	var pressed bool
	if raw {
		pressed = w.watchRaw(ctx, r)
	} else {
		pressed = w.watchLines(ctx, r)
	}

	if pressed {
		stop()
	}
}

// watchRaw reports whether the key (or Ctrl-C, which raw mode no longer
// turns into a signal) was read before the input ended
func (w *Watcher) watchRaw(ctx context.Context, r io.Reader) bool {
	reader := bufio.NewReader(r)
	for ctx.Err() == nil {
		ch, _, err := reader.ReadRune()
		if err != nil {
			return false
		}
		if ch == ctrlC || unicode.ToLower(ch) == w.key {
			return true
		}
	}
	return false
}

func (w *Watcher) watchLines(ctx context.Context, r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	for ctx.Err() == nil && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if ch, size := utf8.DecodeRuneInString(line); size == len(line) && size > 0 && unicode.ToLower(ch) == w.key {
			return true
		}
	}
	return false
}
