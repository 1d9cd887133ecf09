package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/radieske/bet-ledger/internal/ledger"
	"github.com/radieske/bet-ledger/internal/persistence"
	"github.com/radieske/bet-ledger/internal/syncclient"
)

type statusCmd struct{ json bool }

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "where the data lives and how long it is kept" }
func (*statusCmd) Usage() string    { return "apuestas status [-json]\n" }
func (c *statusCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print as JSON")
}

func (c *statusCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *App) error {
		st := struct {
			persistence.Description
			Origin persistence.Origin `json:"origin"`
			Sync   *syncclient.Status `json:"sync,omitempty"`
		}{Description: a.Persister.Describe(), Origin: a.Origin}
		if a.Mirror != nil {
			s := a.Mirror.Status()
			st.Sync = &s
		}
		if c.json {
			return printJSON(st)
		}

		tw := newTable()
		fmt.Fprintf(tw, "storage\t%s\n", st.Tier)
		fmt.Fprintf(tw, "retention\t%s\n", st.Retention)
		fmt.Fprintf(tw, "loaded from\t%s\n", st.Origin)
		if st.UserID != "" {
			fmt.Fprintf(tw, "user id\t%s\n", st.UserID)
		}
		switch {
		case st.Sync == nil:
			fmt.Fprintf(tw, "sync server\toffline\n")
		case st.Sync.LastSuccess.IsZero():
			fmt.Fprintf(tw, "sync server\tonline, nothing sent yet\n")
		default:
			fmt.Fprintf(tw, "sync server\tlast upload %s\n", st.Sync.LastSuccess.Local().Format(time.DateTime))
		}
		return tw.Flush()
	})
}

var errOffline = errors.New("sync server not reachable")

type remoteCmd struct{}

func (*remoteCmd) Name() string     { return "remote" }
func (*remoteCmd) Synopsis() string { return "list or delete snapshots stored on the sync server" }
func (*remoteCmd) Usage() string {
	return `apuestas remote list
apuestas remote delete <user id>
`
}
func (*remoteCmd) SetFlags(*flag.FlagSet) {}

func (*remoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *App) error {
		if a.Sync == nil {
			return errOffline
		}
		switch f.Arg(0) {
		case "list":
			ids, err := a.Sync.List(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				mark := ""
				if id == a.Persister.Describe().UserID {
					mark = " (this client)"
				}
				fmt.Fprintln(stdout, id+mark)
			}
			return nil
		case "delete":
			if f.NArg() != 2 {
				return fmt.Errorf("%w: remote delete needs a user id", ledger.ErrValidation)
			}
			return a.Sync.Delete(ctx, f.Arg(1))
		}
		return fmt.Errorf("%w: unknown remote action %q", ledger.ErrValidation, f.Arg(0))
	})
}
