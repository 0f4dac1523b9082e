package terminal

import (
	"bufio"
	"io"
	"strings"
)

// Input reads lines typed by the user
type Input struct {
	reader *bufio.Reader
}

// NewInput creates an input reader over r
func NewInput(r io.Reader) *Input {
	return &Input{reader: bufio.NewReader(r)}
}

// ReadLine reads a line of input. A final line without a newline is
// returned before io.EOF.
func (in *Input) ReadLine() (string, error) {
	line, err := in.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}

	// Trim whitespace and newline
	return strings.TrimSpace(line), nil
}

// IsCommand reports whether line is a slash command such as /exit
func IsCommand(line string) (string, bool) {
	if !strings.HasPrefix(line, "/") {
		return "", false
	}
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToLower(fields[0]), true
}
