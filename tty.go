package kittyimg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/apex/log"
	"golang.org/x/term"

	"github.com/blacktop/go-kittyimg/pkg/apc"
)

var (
	// ErrNotTerminal is returned when there is no interactive terminal to talk to
	ErrNotTerminal = errors.New("not an interactive terminal")
	// ErrReleased is returned when querying a channel whose input was torn down
	ErrReleased = errors.New("terminal input already released")
)

// clearLine moves to column 0 and erases whatever the terminal echoed on the line
const clearLine = "\r\x1b[K"

// Channel is raw access to the terminal. Writes go straight to the terminal's
// output; Query additionally captures everything the terminal sends back.
type Channel interface {
	io.Writer
	// Query puts the terminal in raw mode, writes seq and returns all bytes
	// received during window. The terminal state is restored before returning.
	Query(ctx context.Context, seq string, window time.Duration) ([]byte, error)
	// Release tears down the input side. Writes keep working.
	Release() error
}

// TTY is a Channel backed by the controlling terminal
type TTY struct {
	in   *os.File
	out  io.Writer
	tmux bool
	log  log.Interface

	mu       sync.Mutex
	released bool
	// reading is set once the background reader owns the input
	reading bool
	replies chan []byte
}

// OpenTTY opens the controlling terminal for reading and stdout for writing
func OpenTTY() (*TTY, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open controlling terminal: %w", err)
	}
	return NewTTY(tty, os.Stdout), nil
}

// NewTTY creates a TTY channel reading replies from in and writing to out
func NewTTY(in *os.File, out io.Writer) *TTY {
	return &TTY{
		in:      in,
		out:     out,
		log:     log.Log,
		replies: make(chan []byte, 64),
	}
}

// Logger sets the logger used to report terminal restore failures
func (t *TTY) Logger(l log.Interface) *TTY {
	t.log = l
	return t
}

// Tmux enables tmux passthrough wrapping of every escape sequence written
func (t *TTY) Tmux(on bool) *TTY {
	t.tmux = on
	return t
}

// Write sends raw bytes to the terminal
func (t *TTY) Write(p []byte) (int, error) {
	if t.tmux && bytes.HasPrefix(p, []byte("\x1b")) {
		if _, err := io.WriteString(t.out, apc.WrapTmux(string(p))); err != nil {
			return 0, err
		}
		return len(p), nil
	}
	return t.out.Write(p)
}

// Query implements Channel
func (t *TTY) Query(ctx context.Context, seq string, window time.Duration) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		return nil, ErrReleased
	}
	if f, ok := t.out.(*os.File); ok && f != t.in && !term.IsTerminal(int(f.Fd())) {
		return nil, ErrNotTerminal
	}

	var state *term.State
	err := t.control(func(fd int) error {
		if !term.IsTerminal(fd) {
			return ErrNotTerminal
		}
		var err error
		state, err = term.MakeRaw(fd)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotTerminal) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer func() {
		if err := t.restore(state); err != nil {
			t.log.WithError(err).Warn("failed to restore terminal")
		}
	}()

	t.discard()
	if _, err := t.Write([]byte(seq)); err != nil {
		return nil, fmt.Errorf("failed to send query: %w", err)
	}

	return t.collect(ctx, window), nil
}

// Release closes the terminal input.
// Without read deadline support the close completes once the pending read returns.
func (t *TTY) Release() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		return nil
	}
	t.released = true
	return t.in.Close()
}

// control runs f with the raw descriptor of the input.
// Going through SyscallConn keeps the file in non-blocking mode so read deadlines keep working.
func (t *TTY) control(f func(fd int) error) error {
	rc, err := t.in.SyscallConn()
	if err != nil {
		return err
	}
	var ferr error
	if err := rc.Control(func(fd uintptr) { ferr = f(int(fd)) }); err != nil {
		return err
	}
	return ferr
}

func (t *TTY) restore(state *term.State) error {
	err := t.control(func(fd int) error {
		return term.Restore(fd, state)
	})
	if err != nil {
		err = fmt.Errorf("failed to restore terminal mode: %w", err)
	}
	if _, werr := io.WriteString(t.out, clearLine); werr != nil {
		err = errors.Join(err, fmt.Errorf("failed to clear line: %w", werr))
	}
	return err
}

// collect reads until the window closes
func (t *TTY) collect(ctx context.Context, window time.Duration) []byte {
	if t.reading {
		return t.collectAsync(ctx, window)
	}

	deadline := time.Now().Add(window)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := t.in.SetReadDeadline(deadline); err != nil {
		t.startReader()
		return t.collectAsync(ctx, window)
	}
	defer t.in.SetReadDeadline(time.Time{})

	var resp []byte
	buf := make([]byte, 256)
	for {
		n, err := t.in.Read(buf)
		resp = append(resp, buf[:n]...)
		if err != nil || ctx.Err() != nil {
			return resp
		}
	}
}

// startReader hands the input to a single goroutine feeding t.replies.
// Used when the input does not support read deadlines, so a read can
// outlive the window of the query that started it.
func (t *TTY) startReader() {
	t.reading = true
	go func() {
		defer close(t.replies)
		buf := make([]byte, 256)
		for {
			n, err := t.in.Read(buf)
			if n > 0 {
				select {
				case t.replies <- bytes.Clone(buf[:n]):
				default:
					// backlog full, nobody is querying
				}
			}
			if err != nil {
				return
			}
		}
	}()
}

// discard drops replies that arrived after an earlier window closed
func (t *TTY) discard() {
	if !t.reading {
		return
	}
	for {
		select {
		case _, ok := <-t.replies:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (t *TTY) collectAsync(ctx context.Context, window time.Duration) []byte {
	timer := time.NewTimer(window)
	defer timer.Stop()

	var resp []byte
	for {
		select {
		case b, ok := <-t.replies:
			if !ok {
				return resp
			}
			resp = append(resp, b...)
		case <-timer.C:
			return resp
		case <-ctx.Done():
			return resp
		}
	}
}
