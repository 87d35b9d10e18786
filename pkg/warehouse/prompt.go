package warehouse

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter supplies warehouse credentials.
type Prompter interface {
	Credentials(ctx context.Context) (user, password string, err error)
}

// StaticCredentials is a Prompter with fixed credentials.
type StaticCredentials struct {
	User     string
	Password string
}

// Credentials implements Prompter.
func (s StaticCredentials) Credentials(context.Context) (string, string, error) {
	return s.User, s.Password, nil
}

// TerminalPrompter asks for credentials on the terminal. The password is
// read without echo when In is a terminal.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

// NewTerminalPrompter prompts on stdin and stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

// Credentials implements Prompter.
func (p *TerminalPrompter) Credentials(ctx context.Context) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	r := bufio.NewReader(p.In)

	fmt.Fprint(p.Out, "    warehouse user name: ")
	user, err := readLine(r)
	if err != nil {
		return "", "", fmt.Errorf("read user name: %w", err)
	}

	fmt.Fprint(p.Out, "    warehouse password: ")
	var password string
	if fd := int(p.In.Fd()); term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		password = string(b)
	} else {
		password, err = readLine(r)
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
	}
	return user, password, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
