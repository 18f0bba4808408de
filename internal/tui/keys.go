package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// Action is an operator command decoded from a key press.
type Action int

// Operator actions.
const (
	ActionNone Action = iota
	ActionToggle
	ActionSpeedUp
	ActionSpeedDown
	ActionResetTimer
	ActionQuit
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionToggle:
		return "toggle"
	case ActionSpeedUp:
		return "speed_up"
	case ActionSpeedDown:
		return "speed_down"
	case ActionResetTimer:
		return "reset_timer"
	case ActionQuit:
		return "quit"
	default:
		return "none"
	}
}

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1b
	// readBufferSize is large enough for a burst of key presses.
	readBufferSize = 64
	// escapeTimeout is how long a lone ESC waits for the rest of a sequence.
	escapeTimeout = 50 * time.Millisecond
)

// errNotTerminal is returned when raw mode is requested on a non-terminal.
var errNotTerminal = errors.New("input is not a terminal")

// Decode converts raw terminal input into actions. Unknown bytes are ignored
// and an incomplete escape sequence at the end counts as the Esc key.
func Decode(input []byte) []Action {
	var d decoder

	return append(d.feed(input), d.flush()...)
}

// decoder turns a byte stream into actions. An escape sequence split across
// reads is held back until the rest arrives or flush is called.
type decoder struct {
	// pending is an incomplete escape sequence from the previous feed.
	pending []byte
}

// feed decodes input after any pending bytes.
func (d *decoder) feed(input []byte) []Action {
	data := append(d.pending, input...) //nolint:gocritic // pending is owned by the decoder.
	d.pending = nil

	var actions []Action

	for i := 0; i < len(data); i++ {
		b := data[i]

		if b != keyEscape {
			if a := decodeKey(b); a != ActionNone {
				actions = append(actions, a)
			}

			continue
		}

		// Arrow keys arrive as ESC [ X or ESC O X.
		rest := data[i+1:]

		switch {
		case len(rest) == 0, len(rest) == 1 && isEscapePrefix(rest[0]):
			d.pending = append([]byte(nil), data[i:]...)

			return actions
		case isEscapePrefix(rest[0]):
			switch rest[1] {
			case 'A':
				actions = append(actions, ActionSpeedUp)
			case 'B':
				actions = append(actions, ActionSpeedDown)
			}

			i += 2
		default:
			actions = append(actions, ActionQuit)
		}
	}

	return actions
}

// waiting reports whether an incomplete escape sequence is held back.
func (d *decoder) waiting() bool {
	return len(d.pending) > 0
}

// flush gives up on a held back sequence and reports it as the Esc key.
func (d *decoder) flush() []Action {
	if !d.waiting() {
		return nil
	}

	d.pending = nil

	return []Action{ActionQuit}
}

// isEscapePrefix reports whether b follows ESC in an arrow key sequence.
func isEscapePrefix(b byte) bool {
	return b == '[' || b == 'O'
}

// decodeKey maps a single byte to an action.
func decodeKey(b byte) Action {
	switch b {
	case ' ', '\r', '\n', 's', 'S':
		return ActionToggle
	case '+', '=', 'k', 'K':
		return ActionSpeedUp
	case '-', '_', 'j', 'J':
		return ActionSpeedDown
	case 'r', 'R':
		return ActionResetTimer
	case 'q', 'Q', keyCtrlC:
		return ActionQuit
	default:
		return ActionNone
	}
}

// ReadKeys decodes input from r into actions until ctx is done or r fails.
// It returns nil on io.EOF. A lone Esc is reported once no more bytes of an
// escape sequence arrive within escapeTimeout.
func ReadKeys(ctx context.Context, r io.Reader, actions chan<- Action) error {
	var (
		chunks  = make(chan []byte)
		readErr = make(chan error, 1)
	)

	// Read blocks, so it runs apart from the escape timer.
	go func() {
		buf := make([]byte, readBufferSize)

		for {
			n, err := r.Read(buf)
			if n > 0 {
				select {
				case chunks <- bytes.Clone(buf[:n]):
				case <-ctx.Done():
					return
				}
			}

			if err != nil {
				readErr <- err

				return
			}
		}
	}()

	var (
		dec    decoder
		escape <-chan time.Time
	)

	send := func(batch []Action) bool {
		for _, a := range batch {
			select {
			case actions <- a:
			case <-ctx.Done():
				return false
			}
		}

		return true
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case chunk := <-chunks:
			if !send(dec.feed(chunk)) {
				return nil
			}

			escape = nil
			if dec.waiting() {
				escape = time.After(escapeTimeout)
			}
		case <-escape:
			escape = nil

			if !send(dec.flush()) {
				return nil
			}
		case err := <-readErr:
			if !send(dec.flush()) {
				return nil
			}

			if errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("read keys: %w", err)
		}
	}
}

// MakeRaw switches f into raw mode and returns a function restoring it.
func MakeRaw(f *os.File) (func() error, error) {
	fd := int(f.Fd()) //nolint:gosec // File descriptors fit in int.

	if !term.IsTerminal(fd) {
		return nil, errNotTerminal
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}

	return func() error {
		return term.Restore(fd, state)
	}, nil
}
