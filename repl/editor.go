package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"unicode/utf8"

	"golang.org/x/term"
)

// History is browsed with the arrow keys.
type History interface {
	Prev() (string, bool)
	Next() (string, bool)
}

// Editor is a minimal line editor with cursor tracking.
// It reads from /dev/tty so it works even when stdout is redirected.
type Editor struct {
	tty      *os.File
	oldState *term.State

	// OnChange is called after every edit with the new line.
	OnChange func(line string)
	// OnTab returns the replacement line and cursor, or ok=false to leave
	// the line alone.
	OnTab   func(line string, cursor int) (string, int, bool)
	History History

	mu     sync.Mutex
	prompt string
	buf    []byte
	pos    int // cursor byte offset into buf
}

// NewEditor opens /dev/tty and switches to raw mode.
func NewEditor() (*Editor, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/tty: %w", err)
	}

	old, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		tty.Close()
		return nil, fmt.Errorf("raw mode: %w", err)
	}

	return &Editor{tty: tty, oldState: old}, nil
}

// Close restores terminal state and closes the tty fd.
func (e *Editor) Close() {
	term.Restore(int(e.tty.Fd()), e.oldState)
	e.tty.Close()
}

// Tty returns the tty file for writing prompts/UI.
func (e *Editor) Tty() *os.File {
	return e.tty
}

// Notify prints text above the line being edited and redraws it. It is
// safe to call from other goroutines.
func (e *Editor) Notify(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintf(e.tty, "\r\x1b[K%s\r\n", text)
	e.redraw()
}

// ReadLine displays the prompt and reads a line with full cursor tracking.
// Returns the input text and cursor position.
// Returns io.EOF when the user presses Ctrl-D on empty input.
func (e *Editor) ReadLine(prompt string) (text string, cursor int, err error) {
	e.mu.Lock()
	e.prompt = prompt
	e.buf = e.buf[:0]
	e.pos = 0
	e.redraw()
	e.mu.Unlock()

	var esc [8]byte // buffer for escape sequences

	for {
		var b [1]byte
		_, err := e.tty.Read(b[:])
		if err != nil {
			return "", 0, err
		}

		e.mu.Lock()
		before := string(e.buf)

		switch b[0] {
		case 3: // Ctrl-C
			fmt.Fprintf(e.tty, "\r\n")
			e.mu.Unlock()
			return "", 0, ErrInterrupt

		case 4: // Ctrl-D
			if len(e.buf) == 0 {
				fmt.Fprintf(e.tty, "\r\n")
				e.mu.Unlock()
				return "", 0, io.EOF
			}

		case 13, 10: // Enter
			fmt.Fprintf(e.tty, "\r\n")
			line, pos := string(e.buf), e.pos
			// Nothing is being edited until the next ReadLine.
			e.prompt, e.buf, e.pos = "", e.buf[:0], 0
			e.mu.Unlock()
			return line, pos, nil

		case 9: // Tab
			if e.OnTab != nil {
				line, pos := string(e.buf), e.pos
				e.mu.Unlock()
				newLine, newPos, ok := e.OnTab(line, pos)
				e.mu.Lock()
				if ok {
					e.setLine(newLine, newPos)
				}
			}

		case 127, 8: // Backspace / Ctrl-H
			if e.pos > 0 {
				_, size := prevRune(e.buf, e.pos)
				copy(e.buf[e.pos-size:], e.buf[e.pos:])
				e.buf = e.buf[:len(e.buf)-size]
				e.pos -= size
			}

		case 1: // Ctrl-A (Home)
			e.pos = 0

		case 5: // Ctrl-E (End)
			e.pos = len(e.buf)

		case 21: // Ctrl-U (clear line)
			e.buf = e.buf[:0]
			e.pos = 0

		case 27: // Escape sequence
			n, _ := e.tty.Read(esc[:1])
			if n == 0 || esc[0] != '[' {
				break
			}
			n, _ = e.tty.Read(esc[1:2])
			if n == 0 {
				break
			}
			switch esc[1] {
			case 'A': // Up
				if e.History != nil {
					if line, ok := e.History.Prev(); ok {
						e.setLine(line, len(line))
					}
				}
			case 'B': // Down
				if e.History != nil {
					if line, ok := e.History.Next(); ok {
						e.setLine(line, len(line))
					}
				}
			case 'D': // Left
				if e.pos > 0 {
					_, size := prevRune(e.buf, e.pos)
					e.pos -= size
				}
			case 'C': // Right
				if e.pos < len(e.buf) {
					_, size := utf8.DecodeRune(e.buf[e.pos:])
					e.pos += size
				}
			case 'H': // Home
				e.pos = 0
			case 'F': // End
				e.pos = len(e.buf)
			case '3': // Delete key: \x1b[3~
				e.tty.Read(esc[2:3]) // consume '~'
				if e.pos < len(e.buf) {
					_, size := utf8.DecodeRune(e.buf[e.pos:])
					copy(e.buf[e.pos:], e.buf[e.pos+size:])
					e.buf = e.buf[:len(e.buf)-size]
				}
			case '1': // Home: \x1b[1~
				e.tty.Read(esc[2:3])
				e.pos = 0
			case '4': // End: \x1b[4~
				e.tty.Read(esc[2:3])
				e.pos = len(e.buf)
			}

		default: // Printable character
			if b[0] >= 32 {
				ch := []byte{b[0]}
				if b[0] >= 0xC0 {
					extra := utf8RuneLen(b[0]) - 1
					tmp := make([]byte, extra)
					e.tty.Read(tmp)
					ch = append(ch, tmp...)
				}
				e.buf = append(e.buf, make([]byte, len(ch))...)
				copy(e.buf[e.pos+len(ch):], e.buf[e.pos:len(e.buf)-len(ch)])
				copy(e.buf[e.pos:], ch)
				e.pos += len(ch)
			}
		}

		e.redraw()
		after := string(e.buf)
		e.mu.Unlock()

		if after != before && e.OnChange != nil {
			e.OnChange(after)
		}
	}
}

// setLine replaces the buffer. Callers hold e.mu.
func (e *Editor) setLine(line string, pos int) {
	e.buf = append(e.buf[:0], line...)
	if pos < 0 || pos > len(e.buf) {
		pos = len(e.buf)
	}
	e.pos = pos
}

// redraw clears the current line and redraws prompt + buffer with cursor.
// Callers hold e.mu.
func (e *Editor) redraw() {
	// \r = carriage return, \x1b[K = clear to end of line
	fmt.Fprintf(e.tty, "\r\x1b[K%s%s", e.prompt, string(e.buf))

	// Move cursor back to the correct position
	tailLen := utf8.RuneCount(e.buf[e.pos:])
	if tailLen > 0 {
		fmt.Fprintf(e.tty, "\x1b[%dD", tailLen)
	}
}

// prevRune returns the rune and byte size of the rune before pos.
func prevRune(buf []byte, pos int) (rune, int) {
	if pos <= 0 {
		return 0, 0
	}
	i := pos - 1
	for i > 0 && !utf8.RuneStart(buf[i]) {
		i--
	}
	r, size := utf8.DecodeRune(buf[i:pos])
	return r, size
}

// utf8RuneLen returns the expected byte length of a UTF-8 sequence
// from its leading byte.
func utf8RuneLen(lead byte) int {
	if lead < 0xC0 {
		return 1
	}
	if lead < 0xE0 {
		return 2
	}
	if lead < 0xF0 {
		return 3
	}
	return 4
}

// ErrInterrupt is returned when the user presses Ctrl-C.
var ErrInterrupt = fmt.Errorf("interrupted")
