package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/radieske/bet-ledger/internal/ledger"
	"github.com/radieske/bet-ledger/internal/transfer"
)

type exportCmd struct{ format, out string }

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the database, a JSON backup or a CSV of wagers" }
func (*exportCmd) Usage() string {
	return `apuestas export [-format db|json|csv] [-o file]

  Without -o the file is named after today's date in the current
  directory. Use -o - to write to stdout.
`
}
func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "db", "db, json or csv")
	f.StringVar(&c.out, "o", "", "output file")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *App) error {
		now := time.Now()
		var name string
		var write func(io.Writer) error
		switch c.format {
		case "db":
			name = transfer.ImageFileName(now)
			write = func(w io.Writer) error { return a.Service.WriteImage(ctx, w) }
		case "json":
			name = transfer.DocumentFileName(now)
			write = a.Service.ExportDocument
		case "csv":
			name = transfer.CSVFileName(now)
			write = a.Service.ExportCSV
		default:
			return fmt.Errorf("%w: unknown format %q", ledger.ErrValidation, c.format)
		}

		if c.out == "-" {
			return write(stdout)
		}
		if c.out != "" {
			name = c.out
		}
		if err := writeFile(name, write); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "exported to %s\n", name)
		return nil
	})
}

// writeFile grava num temporário e renomeia, para não deixar export pela metade.
func writeFile(name string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), ".export-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}

type importCmd struct{ format, mode string }

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a database file or a JSON backup" }
func (*importCmd) Usage() string {
	return `apuestas import [-format db|json] [-mode merge|replace] <file>

  A .db file replaces everything. A JSON backup is merged by default
  (records whose id already exists are skipped); -mode replace wipes the
  current data first. A failed import changes nothing.
`
}
func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "db or json; guessed from the extension when empty")
	f.StringVar(&c.mode, "mode", string(transfer.ModeMerge), "merge or replace (JSON only)")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return run(ctx, func(ctx context.Context, a *App) error {
		path := f.Arg(0)
		format := c.format
		if format == "" {
			format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		switch format {
		case "db", "sqlite":
			if err := a.Service.ImportImage(ctx, file); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "database replaced")
			return nil
		case "json":
			mode, err := transfer.ParseImportMode(c.mode)
			if err != nil {
				return err
			}
			res, err := a.Service.ImportDocument(ctx, file, mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%d records imported, %d skipped, %d without a house\n", res.Inserted, res.Skipped, res.Orphaned)
			return nil
		}
		return fmt.Errorf("%w: unknown format %q", ledger.ErrValidation, format)
	})
}
