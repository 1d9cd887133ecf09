package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/radieske/bet-ledger/internal/currency"
	"github.com/radieske/bet-ledger/internal/ledger"
)

func decimalOf(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

type statsCmd struct{ json bool }

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "totals of one house, or of all houses per currency" }
func (*statsCmd) Usage() string    { return "apuestas stats [-json] [house]\n" }
func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print as JSON")
}

func (c *statsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *App) error {
		if f.NArg() == 1 {
			h, err := resolveHouse(a, f.Arg(0))
			if err != nil {
				return err
			}
			hs, _ := a.Service.StatsForHouse(h.ID)
			if c.json {
				return printJSON(hs)
			}
			printTotals(h.Name+" ("+string(h.Currency)+")", hs.Totals, h.Currency)
			return nil
		}

		totals := a.Service.StatsTotal()
		if c.json {
			return printJSON(totals)
		}
		for _, cur := range []ledger.Currency{ledger.PEN, ledger.USD} {
			if t, ok := totals[cur]; ok {
				printTotals(ledger.CurrencyName(cur), t, cur)
			}
		}
		return nil
	})
}

func printTotals(title string, t ledger.Totals, cur ledger.Currency) {
	fmt.Fprintln(stdout, title)
	tw := newTable()
	fmt.Fprintf(tw, "  saldo actual\t%s\n", ledger.FormatAmount(t.Balance, cur))
	fmt.Fprintf(tw, "  beneficio neto\t%s\n", ledger.FormatSigned(t.NetProfit, cur))
	fmt.Fprintf(tw, "  total depositado\t%s\n", ledger.FormatAmount(t.TotalDeposited, cur))
	fmt.Fprintf(tw, "  total retirado\t%s\n", ledger.FormatAmount(t.TotalWithdrawn, cur))
	_ = tw.Flush()
}

type balanceCmd struct{ json bool }

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "consolidated balance in soles at the current rate" }
func (*balanceCmd) Usage() string {
	return `apuestas balance [-json]

  The live balance converts every USD amount at today's rate. The
  historical profit converts each settled USD wager at the rate frozen
  when it was settled.
`
}
func (c *balanceCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print as JSON")
}

func (c *balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *App) error {
		cons, q := a.Service.Consolidated(ctx)
		if c.json {
			return printJSON(struct {
				ledger.Consolidation
				Quote currency.Quote `json:"cotizacion"`
			}{cons, q})
		}

		printQuote(q)
		tw := newTable()
		fmt.Fprintf(tw, "balance PEN\t%s\n", ledger.FormatAmount(cons.LocalBalance, ledger.PEN))
		fmt.Fprintf(tw, "balance USD\t%s\t(%s)\n", ledger.FormatAmount(cons.USDBalance, ledger.USD),
			ledger.FormatAmount(cons.USDBalanceInLocal, ledger.PEN))
		fmt.Fprintf(tw, "balance total\t%s\n", ledger.FormatAmount(cons.LiveBalance, ledger.PEN))
		fmt.Fprintf(tw, "beneficio PEN\t%s\n", ledger.FormatSigned(cons.LocalProfit, ledger.PEN))
		fmt.Fprintf(tw, "beneficio USD\t%s\t(%s)\n", ledger.FormatSigned(cons.USDProfit, ledger.USD),
			ledger.FormatSigned(cons.HistoricalUSDProfitInLocal, ledger.PEN))
		fmt.Fprintf(tw, "ganancias históricas\t%s\n", ledger.FormatSigned(cons.HistoricalProfit, ledger.PEN))
		return tw.Flush()
	})
}

func printQuote(q currency.Quote) {
	fmt.Fprintf(stdout, "1 USD = %.4f PEN (%s, %s)\n", q.Rate, q.Source, q.AsOf.Local().Format(time.DateTime))
}

type historyCmd struct{ json bool }

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "operations of a house with the running balance" }
func (*historyCmd) Usage() string    { return "apuestas history [-json] <house>\n" }
func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print as JSON")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *App) error {
		h, err := resolveHouse(a, f.Arg(0))
		if err != nil {
			return err
		}
		ops, err := a.Service.History(h.ID)
		if err != nil {
			return err
		}
		if c.json {
			return printJSON(ops)
		}

		tw := newTable()
		fmt.Fprintln(tw, "FECHA\tTIPO\tDESCRIPCIÓN\tMONTO\tBENEFICIO\tSALDO")
		for _, op := range ops {
			profit := ""
			if op.Kind == ledger.OpWager {
				profit = ledger.FormatSigned(op.Profit, h.Currency)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", op.Date, op.Kind, op.Description,
				ledger.FormatAmount(decimalOf(op.Amount), h.Currency), profit, ledger.FormatAmount(op.Balance, h.Currency))
		}
		return tw.Flush()
	})
}

type summaryCmd struct{ json bool }

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "dashboard: wager counts and profit evolution" }
func (*summaryCmd) Usage() string    { return "apuestas summary [-json]\n" }
func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print as JSON")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *App) error {
		sum := a.Service.Summary()
		if c.json {
			return printJSON(sum)
		}

		fmt.Fprintf(stdout, "%d apuestas\n", sum.Total)
		tw := newTable()
		for _, o := range ledger.Outcomes {
			if n := sum.ByOutcome[o]; n > 0 {
				fmt.Fprintf(tw, "  %s\t%d\n", o, n)
			}
		}
		kinds := make([]string, 0, len(sum.ByKind))
		for k := range sum.ByKind {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(tw, "  %s\t%d\n", k, sum.ByKind[ledger.WagerKind(k)])
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if n := len(sum.Evolution); n > 0 {
			last := sum.Evolution[n-1]
			fmt.Fprintf(stdout, "beneficio acumulado al %s: %s (nominal)\n", last.Date, last.Cumulative.StringFixed(2))
		}
		return nil
	})
}

type rateCmd struct{ json bool }

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "current USD to PEN exchange rate" }
func (*rateCmd) Usage() string    { return "apuestas rate [-json]\n" }
func (c *rateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print as JSON")
}

func (c *rateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *App) error {
		q := a.Rates.GetRate(ctx)
		if c.json {
			return printJSON(q)
		}
		printQuote(q)
		return nil
	})
}
