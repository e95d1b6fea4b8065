package handlers

import (
	"bufio"
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrInterrupted is returned when Ctrl-C is pressed during masked input.
var ErrInterrupted = errors.New("input interrupted")

const (
	keyBackspace = 8
	keyDelete    = 127
	keyCtrlC     = 3
)

// SecretReader reads a PIN or password without showing it.
type SecretReader interface {
	ReadSecret(max int) (string, error)
}

// TerminalSecretReader reads secrets from a terminal in raw mode, echoing '*'
// for every accepted character and handling backspace.
type TerminalSecretReader struct {
	in  *os.File
	out io.Writer
}

// NewTerminalSecretReader creates a TerminalSecretReader on in.
func NewTerminalSecretReader(in *os.File, out io.Writer) *TerminalSecretReader {
	return &TerminalSecretReader{in: in, out: out}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ReadSecret switches the terminal to raw mode and reads up to max characters.
func (r *TerminalSecretReader) ReadSecret(max int) (string, error) {
	fd := int(r.in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return "", err
	}
	defer term.Restore(fd, state)

	secret, err := readMasked(singleByteReader{r.in}, r.out, max)
	// Raw mode does not translate newlines
	io.WriteString(r.out, "\r\n")
	return secret, err
}

// readMasked reads bytes until Enter, echoing '*' for each kept character.
// Characters past max are ignored; backspace removes the last one.
func readMasked(in io.ByteReader, out io.Writer, max int) (string, error) {
	buf := make([]byte, 0, max)
	for {
		ch, err := in.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				return string(buf), nil
			}
			return "", err
		}

		switch ch {
		case '\n', '\r':
			return string(buf), nil
		case keyCtrlC:
			return "", ErrInterrupted
		case keyBackspace, keyDelete:
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
				io.WriteString(out, "\b \b")
			}
		default:
			if len(buf) < max {
				buf = append(buf, ch)
				io.WriteString(out, "*")
			}
		}
	}
}

// singleByteReader reads one byte at a time so nothing past the secret is consumed.
type singleByteReader struct {
	r io.Reader
}

func (s singleByteReader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(s.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// lineSecretReader reads secrets as plain lines, for input that is not a terminal.
type lineSecretReader struct {
	in *bufio.Reader
}

func (r lineSecretReader) ReadSecret(max int) (string, error) {
	s, err := readLine(r.in)
	if err != nil {
		return "", err
	}
	if len(s) > max {
		s = s[:max]
	}
	return s, nil
}
