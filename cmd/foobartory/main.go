package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"golang.org/x/time/rate"

	persistlog "foobartory.dev/internal/persistence/log"
	"foobartory.dev/internal/persistence/snapshot"
	"foobartory.dev/internal/protocol"
	"foobartory.dev/internal/sim/factory"
	"foobartory.dev/internal/sim/tuning"
)

var version = "dev"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("foobartory", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		tuningPath = fs.String("tuning", "", "path to tuning.yaml (optional)")
		seed       = fs.Int64("seed", 0, "rng seed; 0 uses the tuning seed, or the clock when that is 0 too")
		tracePath  = fs.String("trace", "", "write a zstd JSONL trace to this path (optional)")
		snapPath   = fs.String("snapshot", "", "write the final state snapshot to this path (optional)")
		quiet      = fs.Bool("quiet", false, "show a progress bar instead of per-task lines")
		noColor    = fs.Bool("no-color", false, "disable colored output")
		showVer    = fs.Bool("version", false, "print version and exit")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: foobartory [flags] [speed]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(negativeSpeedAsPositional(fs, args)); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *showVer {
		fmt.Fprintln(stdout, "foobartory", version)
		return exitOK
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitUsage
	}

	logger := log.New(stdout, "[foobartory] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		logger.Printf("load tuning: %v", err)
		return exitError
	}
	if fs.NArg() == 1 {
		speed, err := strconv.ParseFloat(strings.TrimSpace(fs.Arg(0)), 64)
		if err != nil || math.IsNaN(speed) || math.IsInf(speed, 0) {
			fmt.Fprintf(stderr, "invalid speed %q\n", fs.Arg(0))
			return exitUsage
		}
		tune.Speed = math.Abs(speed)
	}
	if *seed != 0 {
		tune.Seed = *seed
	}
	if tune.Seed == 0 {
		tune.Seed = time.Now().UnixNano()
	}
	if *noColor {
		color.NoColor = true
	}

	f, err := factory.New(factory.ConfigFromTuning(tune), nil)
	if err != nil {
		logger.Printf("factory: %v", err)
		return exitError
	}
	logger.Printf("seed=%d speed=%v robot_cap=%d", tune.Seed, tune.Speed, f.Config().RobotCap)

	con := newConsole(stdout, stderr, *quiet, f.Config().RobotCap)
	f.SetEventSink(con)
	con.Opening(f.Config().InitialRobots)

	var trace *persistlog.TraceLogger
	if p := strings.TrimSpace(*tracePath); p != "" {
		trace, err = persistlog.CreateTraceFile(p)
		if err != nil {
			logger.Printf("open trace: %v", err)
			return exitError
		}
		cfg := f.Config()
		if err := trace.WriteHeader(protocol.HeaderLine{
			Seed:          cfg.Seed,
			TickSeconds:   cfg.TickSeconds,
			RobotCap:      cfg.RobotCap,
			InitialRobots: cfg.InitialRobots,
			CatalogDigest: f.Catalog().Digest,
			StartedAt:     time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			_ = trace.Close()
			logger.Printf("trace header: %v", err)
			return exitError
		}
		f.SetPassLogger(trace)
	}

	res, runErr := f.Run(ctx, newPacer(tune))
	con.Finish()

	if trace != nil {
		end := protocol.EndLine{Ticks: res.Ticks, Digest: res.Digest, Code: factory.ErrorCode(runErr)}
		if runErr != nil {
			end.Message = runErr.Error()
		}
		if err := trace.WriteEnd(end); err != nil {
			logger.Printf("trace end: %v", err)
		}
		if err := trace.Close(); err != nil {
			logger.Printf("close trace: %v", err)
			if runErr == nil {
				runErr = err
			}
		}
	}
	if p := strings.TrimSpace(*snapPath); p != "" {
		snap, err := f.ExportSnapshot()
		if err == nil {
			err = snapshot.WriteSnapshot(p, snap)
		}
		if err != nil {
			logger.Printf("write snapshot: %v", err)
			if runErr == nil {
				runErr = err
			}
		} else {
			logger.Printf("snapshot written: %s tick=%d", p, snap.Header.Tick)
		}
	}

	if runErr != nil {
		logger.Printf("run stopped at tick %d: %v", res.Ticks, runErr)
		return exitError
	}
	con.Closing()
	if err := renderSummary(stdout, res, f.Catalog()); err != nil {
		logger.Printf("summary: %v", err)
		return exitError
	}
	return exitOK
}

// negativeSpeedAsPositional puts "--" before a negative number so the flag
// parser treats it as the speed argument instead of an unknown flag. Values
// of non-bool flags are skipped.
func negativeSpeedAsPositional(fs *flag.FlagSet, args []string) []string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" || !strings.HasPrefix(a, "-") {
			return args
		}
		if _, err := strconv.ParseFloat(a, 64); err == nil {
			out := make([]string, 0, len(args)+1)
			out = append(out, args[:i]...)
			out = append(out, "--")
			return append(out, args[i:]...)
		}
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		fl := fs.Lookup(name)
		if fl == nil {
			continue
		}
		if bf, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
			continue
		}
		i++
	}
	return args
}

// newPacer spaces robot ticks TickSeconds*Speed apart in real time. Speed 0
// runs unpaced.
func newPacer(t tuning.Tuning) factory.Pacer {
	d := time.Duration(t.TickSeconds * t.Speed * float64(time.Second))
	if d <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(d), 1)
}
