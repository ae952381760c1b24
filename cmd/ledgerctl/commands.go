package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/app"
	"github.com/mamadbah2/warehouse/internal/config"
	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/service/reporting"
	"github.com/mamadbah2/warehouse/pkg/logger"
)

func register(c *subcommands.Commander) {
	c.Register(&inventoryCmd{}, "ledger")
	c.Register(&exportCmd{}, "ledger")
	c.Register(&importCmd{}, "ledger")
	c.Register(&syncCmd{}, "remote")
	c.Register(&reportCmd{}, "reports")
}

// openApp loads the configuration and the ledger. The caller closes the app.
func openApp(ctx context.Context) (*app.App, *zap.Logger, error) {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewConsole(*verbose)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

// outputFile returns stdout for "" and "-".
func outputFile(name string) (io.WriteCloser, error) {
	if name == "" || name == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(name)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

type inventoryCmd struct {
	asJSON bool
}

func (*inventoryCmd) Name() string     { return "inventory" }
func (*inventoryCmd) Synopsis() string { return "print the computed inventory" }
func (*inventoryCmd) Usage() string {
	return `inventory [-json]

  Prints one line per item with the incoming, outgoing and broken totals,
  the current stock and its value. Low-stock items are flagged.
`
}

func (p *inventoryCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&p.asJSON, "json", false, "Print the whole dashboard as JSON")
}

func (p *inventoryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, _, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close(ctx)

	dash := a.Ledger.View(ctx)

	if p.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(dash); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "SKU\tName\tIn\tOut\tBroken\tStock\tValue\t\t")
	for _, row := range dash.Rows {
		mark := ""
		if row.Low {
			mark = "LOW"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\t\n",
			row.SKU, row.Name, row.In, row.Out, row.Broken, row.Stock, reporting.FormatMoney(row.Value), mark)
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}

	fmt.Printf("\n%d SKUs, %d units, value %s, losses %s, sold %s\n",
		dash.Stats.SKUs, dash.Stats.TotalUnits,
		reporting.FormatMoney(dash.Stats.TotalValue),
		reporting.FormatMoney(dash.Stats.TotalLoss),
		reporting.FormatMoney(dash.Stats.TotalSoldValue))
	return subcommands.ExitSuccess
}

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the ledger document as JSON" }
func (*exportCmd) Usage() string {
	return `export [-o <file>]

  Writes the whole ledger (items, transactions, trend samples, company
  settings) in the exchange format accepted by import.
`
}

func (p *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.output, "o", "magazzino.json", "Output file, - for stdout")
}

func (p *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, _, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close(ctx)

	document, err := a.Ledger.Export()
	if err != nil {
		return fail(err)
	}

	out, err := outputFile(p.output)
	if err != nil {
		return fail(err)
	}
	if _, err := out.Write(document); err != nil {
		out.Close()
		return fail(err)
	}
	if err := out.Close(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the ledger with a JSON document" }
func (*importCmd) Usage() string {
	return `import <file>

  Replaces the whole ledger with the document in <file>. Nothing is merged.
  An invalid document leaves the ledger untouched.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "import expects exactly one file")
		return subcommands.ExitUsageError
	}

	raw, err := os.ReadFile(f.Arg(0))
	if err != nil {
		return fail(err)
	}

	a, _, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close(ctx)

	notice, err := a.Dispatcher.HandleCommand(ctx, models.Command{Type: models.CommandImport, Payload: raw})
	if err != nil {
		return fail(err)
	}
	fmt.Println(notice.Message)
	return subcommands.ExitSuccess
}

type syncCmd struct{}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "push the ledger to the sync endpoint once" }
func (*syncCmd) Usage() string {
	return `sync

  Posts the exported ledger to SYNC_URL. Failures are reported, never retried.
`
}

func (*syncCmd) SetFlags(*flag.FlagSet) {}

func (*syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, log, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close(ctx)

	if err := a.Dispatcher.Sync(ctx); err != nil {
		log.Debug("sync failed", zap.Error(err))
		return fail(err)
	}
	fmt.Println("Sync completed.")
	return subcommands.ExitSuccess
}

type reportCmd struct {
	output string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "render the inventory report as PDF" }
func (*reportCmd) Usage() string {
	return `report [-o <file>]

  Renders the printable inventory report with the company header, the
  headline figures, the low-stock alert, the inventory table and the trend.
`
}

func (p *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.output, "o", "magazzino.pdf", "Output file, - for stdout")
}

func (p *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, _, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close(ctx)

	dash := a.Ledger.View(ctx)

	out, err := outputFile(p.output)
	if err != nil {
		return fail(err)
	}
	if err := a.Reports.RenderPDF(out, dash); err != nil {
		out.Close()
		return fail(err)
	}
	if err := out.Close(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
