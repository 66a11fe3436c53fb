package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"foobartory.dev/internal/sim/factory"
	"foobartory.dev/internal/sim/tuning"
)

var bold = color.New(color.Bold)

type runResult struct {
	Seed   int64
	Result factory.Result
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		runs       = fs.Int("runs", 16, "number of seeds to simulate")
		seed       = fs.Int64("seed", 1, "first seed")
		workers    = fs.Int("workers", runtime.GOMAXPROCS(0), "concurrent simulations")
		tuningPath = fs.String("tuning", "", "path to tuning.yaml (optional)")
		quiet      = fs.Bool("quiet", false, "hide the progress bar")
		noColor    = fs.Bool("no-color", false, "disable colored output")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *runs <= 0 || *workers <= 0 {
		fmt.Fprintln(stderr, "-runs and -workers must be > 0")
		return 2
	}
	if *noColor {
		color.NoColor = true
	}
	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		fmt.Fprintln(stderr, "load tuning:", err)
		return 1
	}

	var bar *progressbar.ProgressBar
	if !*quiet {
		bar = progressbar.NewOptions(*runs,
			progressbar.OptionSetDescription("Simulating"),
			progressbar.OptionSetWidth(50),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionClearOnFinish(),
		)
	}

	results, err := sweep(ctx, tune, *seed, *runs, *workers, bar)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		fmt.Fprintln(stderr, "sweep:", err)
		return 1
	}
	if err := render(stdout, results); err != nil {
		fmt.Fprintln(stderr, "render:", err)
		return 1
	}
	return 0
}

// sweep runs seeds first..first+n-1. Each simulation is sequential and owns
// its factory; only the result slots are shared, one per goroutine.
func sweep(ctx context.Context, tune tuning.Tuning, first int64, n, workers int, bar *progressbar.ProgressBar) ([]runResult, error) {
	results := make([]runResult, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		seed := first + int64(i)
		g.Go(func() error {
			cfg := factory.ConfigFromTuning(tune)
			cfg.Seed = seed
			f, err := factory.New(cfg, nil)
			if err != nil {
				return err
			}
			res, err := f.Run(ctx, nil)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = runResult{Seed: seed, Result: res}
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func render(out io.Writer, results []runResult) error {
	_, _ = bold.Fprintf(out, "Sweep: %d runs\n", len(results))

	table := tablewriter.NewWriter(out)
	table.Header("Seed", "Passes", "Sim seconds", "Currency", "Foobars sold", "Robots", "Digest")
	var passes uint64
	for _, r := range results {
		res := r.Result
		passes += res.Ticks
		if err := table.Append(
			fmt.Sprintf("%d", r.Seed),
			fmt.Sprintf("%d", res.Ticks),
			fmt.Sprintf("%.1f", res.SimSeconds),
			fmt.Sprintf("%d", res.Storage.Currency),
			fmt.Sprintf("%d", res.Stats.FoobarsSold),
			fmt.Sprintf("%d", res.Storage.Robots),
			shortDigest(res.Digest),
		); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	if len(results) > 0 {
		fmt.Fprintf(out, "mean passes to cap: %.1f\n", float64(passes)/float64(len(results)))
	}
	return nil
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
