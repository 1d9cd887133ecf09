package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/google/subcommands"

	"github.com/radieske/bet-ledger/internal/ledger"
)

// wagerFlags são os campos de uma aposta como flags de texto; o parse fica
// para depois, para que house-edit saiba quais foram informadas.
type wagerFlags struct {
	house, kind, event, date, selection, odds, stake, outcome string
}

func (w *wagerFlags) register(f *flag.FlagSet, date string) {
	f.StringVar(&w.house, "house", "", "house id or name")
	f.StringVar(&w.kind, "kind", string(ledger.KindSingle), "normal or surebet")
	f.StringVar(&w.event, "event", "", "event, e.g. \"Alianza vs Cristal\"")
	f.StringVar(&w.date, "date", date, "wager date")
	f.StringVar(&w.selection, "selection", "", "what was backed")
	f.StringVar(&w.odds, "odds", "", "decimal odds")
	f.StringVar(&w.stake, "stake", "", "stake in the house currency")
	f.StringVar(&w.outcome, "outcome", string(ledger.Pending), "won, lost, pending, push, half-won, half-lost")
}

func parseKind(s string) (ledger.WagerKind, error) {
	k := ledger.WagerKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: kind must be normal or surebet", ledger.ErrValidation)
	}
	return k, nil
}

func parsePositive(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ledger.ErrValidation, name, s)
	}
	return v, nil
}

// patch converte só as flags visitadas em campos do patch.
func (w *wagerFlags) patch(a *App, f *flag.FlagSet) (ledger.WagerPatch, error) {
	var p ledger.WagerPatch
	var err error
	f.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "house":
			var h ledger.House
			if h, err = resolveHouse(a, w.house); err == nil {
				p.HouseID = &h.ID
			}
		case "kind":
			var k ledger.WagerKind
			if k, err = parseKind(w.kind); err == nil {
				p.Kind = &k
			}
		case "event":
			p.Event = &w.event
		case "date":
			p.Date = &w.date
		case "selection":
			p.Selection = &w.selection
		case "odds":
			var v float64
			if v, err = parsePositive("odds", w.odds); err == nil {
				p.Odds = &v
			}
		case "stake":
			var v float64
			if v, err = parsePositive("stake", w.stake); err == nil {
				p.Stake = &v
			}
		case "outcome":
			var o ledger.Outcome
			if o, err = ledger.ParseOutcome(w.outcome); err == nil {
				p.Outcome = &o
			}
		}
	})
	return p, err
}

type betsCmd struct {
	house, kind, outcome, from, to string
	json                           bool
}

func (*betsCmd) Name() string     { return "bets" }
func (*betsCmd) Synopsis() string { return "list wagers, newest first" }
func (*betsCmd) Usage() string {
	return "apuestas bets [-house h] [-kind k] [-outcome o] [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-json]\n"
}
func (c *betsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.house, "house", "", "only this house")
	f.StringVar(&c.kind, "kind", "", "only this kind")
	f.StringVar(&c.outcome, "outcome", "", "only this outcome")
	f.StringVar(&c.from, "from", "", "first date, inclusive")
	f.StringVar(&c.to, "to", "", "last date, inclusive")
	f.BoolVar(&c.json, "json", false, "print as JSON")
}

func (c *betsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *App) error {
		filter := ledger.WagerFilter{From: c.from, To: c.to}
		if c.house != "" {
			h, err := resolveHouse(a, c.house)
			if err != nil {
				return err
			}
			filter.HouseID = h.ID
		}
		if c.kind != "" {
			k, err := parseKind(c.kind)
			if err != nil {
				return err
			}
			filter.Kind = k
		}
		if c.outcome != "" {
			o, err := ledger.ParseOutcome(c.outcome)
			if err != nil {
				return err
			}
			filter.Outcome = o
		}

		wagers := a.Service.Wagers(filter)
		if c.json {
			return printJSON(wagers)
		}

		snap := a.Service.Snapshot()
		tw := newTable()
		fmt.Fprintln(tw, "ID\tFECHA\tCASA\tTIPO\tEVENTO\tSELECCIÓN\tCUOTA\tMONTO\tRESULTADO\tBENEFICIO")
		for _, w := range wagers {
			h, _ := snap.House(w.HouseID)
			name := h.Name
			if name == "" {
				name = "?"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.2f\t%s\t%s\t%s\n", w.ID, w.Date, name, w.Kind, w.Event, w.Selection,
				w.Odds, ledger.FormatAmount(decimalOf(w.Stake), h.Currency), w.Outcome, ledger.FormatSigned(w.Profit(), h.Currency))
		}
		return tw.Flush()
	})
}

type betAddCmd struct{ wagerFlags }

func (*betAddCmd) Name() string     { return "bet-add" }
func (*betAddCmd) Synopsis() string { return "record a wager" }
func (*betAddCmd) Usage() string {
	return "apuestas bet-add -house h -event e -selection s -odds 1.85 -stake 100 [-kind k] [-date d] [-outcome o]\n"
}
func (c *betAddCmd) SetFlags(f *flag.FlagSet) { c.register(f, today()) }

func (c *betAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *App) error {
		h, err := resolveHouse(a, c.house)
		if err != nil {
			return err
		}
		kind, err := parseKind(c.kind)
		if err != nil {
			return err
		}
		odds, err := parsePositive("odds", c.odds)
		if err != nil {
			return err
		}
		stake, err := parsePositive("stake", c.stake)
		if err != nil {
			return err
		}
		outcome, err := ledger.ParseOutcome(c.outcome)
		if err != nil {
			return err
		}

		w, err := a.Service.AddWager(ctx, ledger.Wager{
			HouseID: h.ID, Kind: kind, Event: c.event, Date: c.date,
			Selection: c.selection, Odds: odds, Stake: stake, Outcome: outcome,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wager %s recorded\n", w.ID)
		return nil
	})
}

type betEditCmd struct{ wagerFlags }

func (*betEditCmd) Name() string     { return "bet-edit" }
func (*betEditCmd) Synopsis() string { return "change fields of a wager, e.g. settle it" }
func (*betEditCmd) Usage() string {
	return `apuestas bet-edit [flags] <id>

  Only the flags given are changed. The exchange rate of a USD wager is
  frozen the first time it leaves pending and never changes afterwards.
`
}
func (c *betEditCmd) SetFlags(f *flag.FlagSet) { c.register(f, "") }

func (c *betEditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *App) error {
		p, err := c.patch(a, f)
		if err != nil {
			return err
		}
		w, err := a.Service.EditWager(ctx, f.Arg(0), p)
		if err != nil {
			return err
		}
		if w.FrozenRate != nil {
			fmt.Fprintf(stdout, "wager %s: %s, rate frozen at %.4f\n", w.ID, w.Outcome, *w.FrozenRate)
			return nil
		}
		fmt.Fprintf(stdout, "wager %s: %s\n", w.ID, w.Outcome)
		return nil
	})
}

type betRmCmd struct{}

func (*betRmCmd) Name() string           { return "bet-rm" }
func (*betRmCmd) Synopsis() string       { return "delete a wager" }
func (*betRmCmd) Usage() string          { return "apuestas bet-rm <id>\n" }
func (*betRmCmd) SetFlags(*flag.FlagSet) {}

func (*betRmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *App) error {
		return a.Service.DeleteWager(ctx, f.Arg(0))
	})
}
