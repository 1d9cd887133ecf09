package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/radieske/bet-ledger/internal/ledger"
)

// resolveHouse aceita o id ou o nome (sem diferenciar maiúsculas).
func resolveHouse(a *App, ref string) (ledger.House, error) {
	snap := a.Service.Snapshot()
	if h, ok := snap.House(ref); ok {
		return h, nil
	}
	for _, h := range snap.Houses {
		if strings.EqualFold(h.Name, ref) {
			return h, nil
		}
	}
	return ledger.House{}, fmt.Errorf("house %q: %w", ref, ledger.ErrNotFound)
}

func parseCurrency(s string) (ledger.Currency, error) {
	c := ledger.Currency(strings.ToUpper(s))
	if !c.Valid() {
		return "", fmt.Errorf("%w: currency must be PEN or USD", ledger.ErrValidation)
	}
	return c, nil
}

type housesCmd struct{ json bool }

func (*housesCmd) Name() string     { return "houses" }
func (*housesCmd) Synopsis() string { return "list betting houses with their balance" }
func (*housesCmd) Usage() string    { return "apuestas houses [-json]\n" }
func (c *housesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print as JSON")
}

func (c *housesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *App) error {
		stats := a.Service.AllHouseStats()
		if c.json {
			return printJSON(stats)
		}
		tw := newTable()
		fmt.Fprintln(tw, "ID\tCASA\tMONEDA\tSALDO\tBENEFICIO\tDEPOSITADO\tRETIRADO")
		for _, s := range stats {
			cur := s.House.Currency
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", s.House.ID, s.House.Name, cur,
				ledger.FormatAmount(s.Balance, cur), ledger.FormatSigned(s.NetProfit, cur),
				ledger.FormatAmount(s.TotalDeposited, cur), ledger.FormatAmount(s.TotalWithdrawn, cur))
		}
		return tw.Flush()
	})
}

type houseAddCmd struct{ currency string }

func (*houseAddCmd) Name() string     { return "house-add" }
func (*houseAddCmd) Synopsis() string { return "create a betting house" }
func (*houseAddCmd) Usage() string    { return "apuestas house-add [-currency PEN|USD] <name>\n" }
func (c *houseAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "PEN", "house currency (PEN or USD)")
}

func (c *houseAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *App) error {
		cur, err := parseCurrency(c.currency)
		if err != nil {
			return err
		}
		h, err := a.Service.AddHouse(ctx, ledger.House{Name: f.Arg(0), Currency: cur})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "house %s created (%s)\n", h.ID, ledger.CurrencyName(h.Currency))
		return nil
	})
}

type houseEditCmd struct{ name, currency string }

func (*houseEditCmd) Name() string     { return "house-edit" }
func (*houseEditCmd) Synopsis() string { return "rename a house or change its currency" }
func (*houseEditCmd) Usage() string {
	return `apuestas house-edit [-name <name>] [-currency PEN|USD] <house>

  Changing the currency does not convert existing movements or wagers.
`
}
func (c *houseEditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "new name")
	f.StringVar(&c.currency, "currency", "", "new currency")
}

func (c *houseEditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *App) error {
		h, err := resolveHouse(a, f.Arg(0))
		if err != nil {
			return err
		}
		if c.name != "" {
			h.Name = c.name
		}
		if c.currency != "" {
			if h.Currency, err = parseCurrency(c.currency); err != nil {
				return err
			}
		}
		return a.Service.EditHouse(ctx, h)
	})
}

type houseRmCmd struct{}

func (*houseRmCmd) Name() string           { return "house-rm" }
func (*houseRmCmd) Synopsis() string       { return "delete a house and everything recorded in it" }
func (*houseRmCmd) Usage() string          { return "apuestas house-rm <house>\n" }
func (*houseRmCmd) SetFlags(*flag.FlagSet) {}

func (*houseRmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *App) error {
		h, err := resolveHouse(a, f.Arg(0))
		if err != nil {
			return err
		}
		return a.Service.DeleteHouse(ctx, h.ID)
	})
}
