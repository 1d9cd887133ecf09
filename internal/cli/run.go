package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/radieske/bet-ledger/internal/ledger"
	"github.com/radieske/bet-ledger/internal/transfer"
)

// Register registra os comandos no commander, agrupados como no help.
func Register(c *subcommands.Commander) {
	c.Register(&housesCmd{}, "houses")
	c.Register(&houseAddCmd{}, "houses")
	c.Register(&houseEditCmd{}, "houses")
	c.Register(&houseRmCmd{}, "houses")

	c.Register(&depositCmd{}, "movements")
	c.Register(&withdrawCmd{}, "movements")
	c.Register(&movementRmCmd{kind: "deposit"}, "movements")
	c.Register(&movementRmCmd{kind: "withdrawal"}, "movements")

	c.Register(&betsCmd{}, "wagers")
	c.Register(&betAddCmd{}, "wagers")
	c.Register(&betEditCmd{}, "wagers")
	c.Register(&betRmCmd{}, "wagers")

	c.Register(&statsCmd{}, "reports")
	c.Register(&balanceCmd{}, "reports")
	c.Register(&historyCmd{}, "reports")
	c.Register(&summaryCmd{}, "reports")
	c.Register(&rateCmd{}, "reports")

	c.Register(&exportCmd{}, "data")
	c.Register(&importCmd{}, "data")
	c.Register(&statusCmd{}, "data")
	c.Register(&remoteCmd{}, "data")
}

var stdout io.Writer = os.Stdout

// run abre a aplicação, executa fn e fecha (com flush do sync) em seguida.
func run(ctx context.Context, fn func(ctx context.Context, a *App) error) subcommands.ExitStatus {
	a, err := Open(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close(ctx)

	if err := fn(ctx, a); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		if errors.Is(err, ledger.ErrValidation) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func describeError(err error) string {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return "invalid input: " + err.Error()
	case errors.Is(err, ledger.ErrNotFound):
		return "not found: " + err.Error()
	case errors.Is(err, transfer.ErrInvalidDocument):
		return "import aborted, nothing changed: " + err.Error()
	}
	return err.Error()
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
