package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fxkeeper/internal/services"
	"github.com/google/subcommands"
)

type registerCmd struct {
	name  string
	email string
}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "create an account and sign in" }
func (*registerCmd) Usage() string {
	return `register [-name <name>] [-email <email>]

  Creates a local account. Missing values and the credential are prompted for.
`
}

func (c *registerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "display name")
	f.StringVar(&c.email, "email", "", "email address")
}

func (c *registerCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	e := envFrom(args)
	var err error

	if c.name == "" {
		if c.name, err = e.ReadLine("Name"); err != nil {
			return e.fail(ctx, err)
		}
	}
	if c.email == "" {
		if c.email, err = e.ReadLine("Email"); err != nil {
			return e.fail(ctx, err)
		}
	}
	credential, err := e.ReadSecret("Password")
	if err != nil {
		return e.fail(ctx, err)
	}
	confirm, err := e.ReadSecret("Repeat password")
	if err != nil {
		return e.fail(ctx, err)
	}
	if credential != confirm {
		fmt.Fprintln(e.Err, "Error: passwords do not match")
		return subcommands.ExitUsageError
	}

	id, err := e.App.Identity.Register(ctx, c.name, c.email, credential)
	if err != nil {
		return e.fail(ctx, err)
	}
	fmt.Fprintf(e.Out, "Registered account #%d, signed in as %s\n", id, strings.TrimSpace(c.email))
	return subcommands.ExitSuccess
}

type loginCmd struct {
	email string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "sign in" }
func (*loginCmd) Usage() string {
	return `login [-email <email>]
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "email address")
}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	e := envFrom(args)
	var err error

	if c.email == "" {
		if c.email, err = e.ReadLine("Email"); err != nil {
			return e.fail(ctx, err)
		}
	}
	credential, err := e.ReadSecret("Password")
	if err != nil {
		return e.fail(ctx, err)
	}

	acc, err := e.App.Identity.Login(ctx, c.email, credential)
	if err != nil {
		return e.fail(ctx, err)
	}
	if acc == nil {
		fmt.Fprintln(e.Err, "Error: wrong email or password")
		return subcommands.ExitFailure
	}
	fmt.Fprintf(e.Out, "Welcome, %s\n", acc.Name)
	return subcommands.ExitSuccess
}

type logoutCmd struct{}

func (*logoutCmd) Name() string             { return "logout" }
func (*logoutCmd) Synopsis() string         { return "sign out" }
func (*logoutCmd) Usage() string            { return "logout\n" }
func (*logoutCmd) SetFlags(_ *flag.FlagSet) {}

func (*logoutCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	e := envFrom(args)
	if err := e.App.Identity.Logout(ctx); err != nil {
		return e.fail(ctx, err)
	}
	fmt.Fprintln(e.Out, "Signed out")
	return subcommands.ExitSuccess
}

type whoamiCmd struct{}

func (*whoamiCmd) Name() string             { return "whoami" }
func (*whoamiCmd) Synopsis() string         { return "show the signed-in account" }
func (*whoamiCmd) Usage() string            { return "whoami\n" }
func (*whoamiCmd) SetFlags(_ *flag.FlagSet) {}

func (*whoamiCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	e := envFrom(args)
	acc := e.App.Session.Current().Account
	if acc == nil {
		fmt.Fprintln(e.Out, "Not signed in")
		return subcommands.ExitSuccess
	}
	fmt.Fprintf(e.Out, "#%d %s <%s>\n", acc.ID, acc.Name, acc.Email)
	return subcommands.ExitSuccess
}

type updateCmd struct {
	name       string
	email      string
	credential bool
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "change the signed-in account" }
func (*updateCmd) Usage() string {
	return `update [-name <name>] [-email <email>] [-password]

  Omitted fields keep their current value. -password prompts for a new one.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "new display name")
	f.StringVar(&c.email, "email", "", "new email address")
	f.BoolVar(&c.credential, "password", false, "prompt for a new password")
}

func (c *updateCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	e := envFrom(args)
	acc := e.App.Session.Current().Account
	if acc == nil {
		fmt.Fprintln(e.Err, "Error: please log in first")
		return subcommands.ExitFailure
	}

	upd := services.AccountUpdate{ID: acc.ID, Name: acc.Name, Email: acc.Email}
	if c.name != "" {
		upd.Name = c.name
	}
	if c.email != "" {
		upd.Email = c.email
	}
	if c.credential {
		var err error
		if upd.Credential, err = e.ReadSecret("New password"); err != nil {
			return e.fail(ctx, err)
		}
	}

	updated, err := e.App.Identity.Update(ctx, upd)
	if err != nil {
		return e.fail(ctx, err)
	}
	fmt.Fprintf(e.Out, "Updated #%d %s <%s>\n", updated.ID, updated.Name, updated.Email)
	return subcommands.ExitSuccess
}

type deleteCmd struct {
	yes bool
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete the signed-in account and its history" }
func (*deleteCmd) Usage() string {
	return `delete [-yes]
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "do not ask for confirmation")
}

func (c *deleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	e := envFrom(args)
	acc := e.App.Session.Current().Account
	if acc == nil {
		fmt.Fprintln(e.Err, "Error: please log in first")
		return subcommands.ExitFailure
	}

	if !c.yes {
		answer, err := e.ReadLine(fmt.Sprintf("Delete account %s and all its history? [y/N]", acc.Email))
		if err != nil {
			return e.fail(ctx, err)
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			fmt.Fprintln(e.Out, "Cancelled")
			return subcommands.ExitSuccess
		}
	}

	if err := e.App.Identity.Delete(ctx, acc.ID); err != nil {
		return e.fail(ctx, err)
	}
	fmt.Fprintln(e.Out, "Account deleted")
	return subcommands.ExitSuccess
}
