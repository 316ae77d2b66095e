package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/fxkeeper/internal/rates"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type ratesCmd struct {
	base    string
	refresh bool
}

func (*ratesCmd) Name() string     { return "rates" }
func (*ratesCmd) Synopsis() string { return "show exchange rates for a base currency" }
func (*ratesCmd) Usage() string {
	return `rates [-base USD] [-refresh] [CODE...]

  Prints the rates relative to base, fetching them when missing or stale.
  With -refresh a fetch is forced. Codes limit the output.
`
}

func (c *ratesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.base, "base", "USD", "base currency")
	f.BoolVar(&c.refresh, "refresh", false, "always fetch from the provider")
}

func (c *ratesCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	e := envFrom(args)

	fetch := e.App.Conversion.EnsureRates
	if c.refresh {
		fetch = e.App.Conversion.FetchRates
	}
	tbl, err := fetch(ctx, c.base)
	if err != nil {
		return e.fail(ctx, err)
	}

	codes := make([]string, 0, len(tbl.Rates))
	if f.NArg() > 0 {
		for _, code := range f.Args() {
			codes = append(codes, strings.ToUpper(code))
		}
	} else {
		for code := range tbl.Rates {
			codes = append(codes, code)
		}
		sort.Strings(codes)
	}

	fmt.Fprintf(e.Out, "1 %s as of %s\n", tbl.BaseCode, tbl.FetchedAt.Local().Format("2006-01-02 15:04"))
	for _, code := range codes {
		r, ok := tbl.Rate(code)
		if !ok {
			fmt.Fprintf(e.Out, "%-4s n/a\n", code)
			continue
		}
		fmt.Fprintf(e.Out, "%-4s %s\n", code, r.String())
	}
	return subcommands.ExitSuccess
}

type convertCmd struct{}

func (*convertCmd) Name() string     { return "convert" }
func (*convertCmd) Synopsis() string { return "convert an amount between currencies" }
func (*convertCmd) Usage() string {
	return `convert <amount> <FROM> <TO>

  Example: convert 100 USD EUR
  Conversions made while signed in are added to the history.
`
}

func (*convertCmd) SetFlags(_ *flag.FlagSet) {}

func (*convertCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	e := envFrom(args)
	if f.NArg() != 3 {
		fmt.Fprintln(e.Err, "Error: expected <amount> <FROM> <TO>")
		return subcommands.ExitUsageError
	}

	amount, err := decimal.NewFromString(f.Arg(0))
	if err != nil {
		fmt.Fprintf(e.Err, "Error: %q is not a number\n", f.Arg(0))
		return subcommands.ExitUsageError
	}

	rec, err := e.App.Conversion.Convert(ctx, amount, f.Arg(1), f.Arg(2))
	if err != nil {
		return e.fail(ctx, err)
	}
	fmt.Fprintf(e.Out, "%s = %s\n", rates.Format(rec.Amount, rec.FromCode), rates.Format(rec.Result, rec.ToCode))
	return subcommands.ExitSuccess
}

type historyCmd struct {
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list past conversions of the signed-in account" }
func (*historyCmd) Usage() string {
	return `history [-n <count>]
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 0, "show only the most recent n conversions")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	e := envFrom(args)

	recs, err := e.App.Conversion.ListHistory(ctx)
	if err != nil {
		return e.fail(ctx, err)
	}
	if len(recs) == 0 {
		fmt.Fprintln(e.Out, "No conversions yet")
		return subcommands.ExitSuccess
	}
	if c.limit > 0 && len(recs) > c.limit {
		recs = recs[len(recs)-c.limit:]
	}
	for _, r := range recs {
		fmt.Fprintf(e.Out, "%s  %s -> %s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			rates.Format(r.Amount, r.FromCode), rates.Format(r.Result, r.ToCode))
	}
	return subcommands.ExitSuccess
}

type resetCmd struct {
	yes bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "delete all local data" }
func (*resetCmd) Usage() string {
	return `reset -yes

  Removes the database file with every account, the history and cached rates.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "confirm deletion")
}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	e := envFrom(args)
	if !c.yes {
		fmt.Fprintln(e.Err, "Error: reset deletes all local data, pass -yes to confirm")
		return subcommands.ExitUsageError
	}
	if err := e.App.Reset(ctx); err != nil {
		return e.fail(ctx, err)
	}
	fmt.Fprintf(e.Out, "Removed %s\n", e.App.Store.Path())
	return subcommands.ExitSuccess
}
