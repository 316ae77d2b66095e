// Package cli implements the fxkeeper command-line front end. Every command
// is a google/subcommands Command that receives an *Env as its first
// Execute argument and talks to the core only through the services.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/fxkeeper/internal/app"
	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"github.com/dmitrijs2005/fxkeeper/internal/validation"
	"github.com/google/subcommands"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Env is what commands run against.
type Env struct {
	App *app.App
	In  *bufio.Reader
	Out io.Writer
	Err io.Writer

	// fd is the terminal used for hidden input; -1 reads secrets from In.
	fd int
}

// NewEnv binds the app to the process's standard streams.
func NewEnv(a *app.App) *Env {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		fd = -1
	}
	return &Env{App: a, In: bufio.NewReader(os.Stdin), Out: os.Stdout, Err: os.Stderr, fd: fd}
}

// Register adds every fxkeeper command to c.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&registerCmd{}, "account")
	c.Register(&loginCmd{}, "account")
	c.Register(&logoutCmd{}, "account")
	c.Register(&whoamiCmd{}, "account")
	c.Register(&updateCmd{}, "account")
	c.Register(&deleteCmd{}, "account")

	c.Register(&ratesCmd{}, "conversion")
	c.Register(&convertCmd{}, "conversion")
	c.Register(&historyCmd{}, "conversion")

	c.Register(&resetCmd{}, "maintenance")
}

func envFrom(args []interface{}) *Env {
	if len(args) == 0 {
		panic("cli: command executed without *Env")
	}
	return args[0].(*Env)
}

// ReadLine prints prompt and reads one trimmed line.
func (e *Env) ReadLine(prompt string) (string, error) {
	if _, err := fmt.Fprint(e.Out, prompt+": "); err != nil {
		return "", err
	}
	line, err := e.In.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret reads a credential without echo when attached to a terminal.
func (e *Env) ReadSecret(prompt string) (string, error) {
	if e.fd < 0 {
		if _, err := fmt.Fprint(e.Out, prompt+": "); err != nil {
			return "", err
		}
		line, err := e.In.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(e.Out, prompt+": ")
	b, err := readPassword(e.fd)
	fmt.Fprintln(e.Out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(b)
	return string(b), nil
}

// fail prints a user-facing message for err and returns the exit status.
func (e *Env) fail(ctx context.Context, err error) subcommands.ExitStatus {
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		for _, m := range ve.Messages() {
			fmt.Fprintln(e.Err, "Error:", m)
		}
		return subcommands.ExitUsageError
	case errors.Is(err, common.ErrInvalidArgument), errors.Is(err, common.ErrUnknownCurrency):
		fmt.Fprintln(e.Err, "Error:", err)
		return subcommands.ExitUsageError
	case errors.Is(err, common.ErrDuplicateEmail):
		fmt.Fprintln(e.Err, "Error: this email is already registered")
	case errors.Is(err, common.ErrNotAuthenticated):
		fmt.Fprintln(e.Err, "Error: please log in first")
	case errors.Is(err, common.ErrNotFound):
		fmt.Fprintln(e.Err, "Error: account not found")
	case errors.Is(err, common.ErrUnavailable):
		fmt.Fprintln(e.Err, "Error: exchange rates are unavailable right now, try again later")
	case errors.Is(err, common.ErrSchemaTooNew):
		fmt.Fprintln(e.Err, "Error: the data file was written by a newer version of fxkeeper")
	case errors.Is(err, common.ErrStorageFault):
		fmt.Fprintln(e.Err, "Error: local storage failed, see the log for details")
	default:
		e.App.Log.Error(ctx, "command failed", "error", err)
		fmt.Fprintln(e.Err, "Error:", err)
	}
	return subcommands.ExitFailure
}
