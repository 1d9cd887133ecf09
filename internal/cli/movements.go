package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/google/subcommands"

	"github.com/radieske/bet-ledger/internal/ledger"
)

func today() string { return time.Now().Format("2006-01-02") }

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", ledger.ErrValidation, s)
	}
	return v, nil
}

type depositCmd struct{ date string }

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "record a deposit into a house" }
func (*depositCmd) Usage() string    { return "apuestas deposit [-date YYYY-MM-DD] <house> <amount>\n" }
func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", today(), "deposit date")
}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *App) error {
		h, err := resolveHouse(a, f.Arg(0))
		if err != nil {
			return err
		}
		amount, err := parseAmount(f.Arg(1))
		if err != nil {
			return err
		}
		d, err := a.Service.AddDeposit(ctx, ledger.Deposit{HouseID: h.ID, Amount: amount, Date: c.date})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "deposit %s recorded\n", d.ID)
		return nil
	})
}

type withdrawCmd struct{ date string }

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "record a withdrawal from a house" }
func (*withdrawCmd) Usage() string    { return "apuestas withdraw [-date YYYY-MM-DD] <house> <amount>\n" }
func (c *withdrawCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", today(), "withdrawal date")
}

func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *App) error {
		h, err := resolveHouse(a, f.Arg(0))
		if err != nil {
			return err
		}
		amount, err := parseAmount(f.Arg(1))
		if err != nil {
			return err
		}
		w, err := a.Service.AddWithdrawal(ctx, ledger.Withdrawal{HouseID: h.ID, Amount: amount, Date: c.date})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "withdrawal %s recorded\n", w.ID)
		return nil
	})
}

// movementRmCmd apaga um depósito ou um saque pelo id.
type movementRmCmd struct{ kind string }

func (c *movementRmCmd) Name() string         { return c.kind + "-rm" }
func (c *movementRmCmd) Synopsis() string     { return "delete a " + c.kind }
func (c *movementRmCmd) Usage() string        { return "apuestas " + c.Name() + " <id>\n" }
func (*movementRmCmd) SetFlags(*flag.FlagSet) {}

func (c *movementRmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *App) error {
		if c.kind == "deposit" {
			return a.Service.DeleteDeposit(ctx, f.Arg(0))
		}
		return a.Service.DeleteWithdrawal(ctx, f.Arg(0))
	})
}
