package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"

	"foobartory.dev/internal/protocol"
	"foobartory.dev/internal/sim/catalogs"
	"foobartory.dev/internal/sim/factory"
	"foobartory.dev/internal/sim/factory/logic/sampling"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	blue   = color.New(color.FgBlue)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

// console renders factory events as status lines, or as a progress bar of
// the robot count in quiet mode.
type console struct {
	out   io.Writer
	quiet bool
	bar   *progressbar.ProgressBar
}

func newConsole(out, errOut io.Writer, quiet bool, robotCap int) *console {
	c := &console{out: out, quiet: quiet}
	if quiet {
		c.bar = progressbar.NewOptions(robotCap,
			progressbar.OptionSetDescription("Robots"),
			progressbar.OptionSetWidth(50),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(errOut),
			progressbar.OptionClearOnFinish(),
		)
	}
	return c
}

func (c *console) Opening(initialRobots int) {
	if initialRobots == 2 {
		_, _ = bold.Fprintln(c.out, "Creating initial storage. Two worker bots have been dispatched.")
	} else {
		_, _ = bold.Fprintf(c.out, "Creating initial storage. %d worker bots have been dispatched.\n", initialRobots)
	}
	if c.bar != nil {
		_ = c.bar.Set(initialRobots)
	}
}

func (c *console) OnEvent(e factory.Event) {
	if c.quiet {
		if e.Type == protocol.EventRobotBought && c.bar != nil {
			_ = c.bar.Set(e.Storage.Robots)
		}
		return
	}
	switch e.Type {
	case protocol.EventTaskStarted:
		_, _ = blue.Fprintf(c.out, "%s started %s\n", e.Robot, e.Task)
	case protocol.EventTaskFinished:
		_, _ = green.Fprintf(c.out, "%s finished %s after %.1fs\n", e.Robot, e.Task, e.Elapsed)
		_, _ = yellow.Fprintf(c.out, "Current storage: Currency:%d, Foo:%d, Bar:%d, Robots:%d\n",
			e.Storage.Currency, e.Storage.Foo, e.Storage.Bar, e.Storage.Robots)
	case protocol.EventRobotBought:
		_, _ = cyan.Fprintf(c.out, "%s bought %s\n", e.Robot, e.NewRobot)
	}
}

func (c *console) Finish() {
	if c.bar != nil {
		_ = c.bar.Finish()
	}
}

func (c *console) Closing() {
	_, _ = bold.Fprintln(c.out, "Maximum robot capacity exceeded: End of operations.")
}

func renderSummary(out io.Writer, res factory.Result, cat *catalogs.Catalog) error {
	fmt.Fprintln(out)
	_, _ = bold.Fprintln(out, "Summary")

	table := tablewriter.NewWriter(out)
	table.Header("Passes", "Sim seconds", "Currency", "Foo", "Bar", "Foobar", "Robots", "Foobars sold", "Digest")
	if err := table.Append(
		fmt.Sprintf("%d", res.Ticks),
		fmt.Sprintf("%.1f", res.SimSeconds),
		fmt.Sprintf("%d", res.Storage.Currency),
		fmt.Sprintf("%d", res.Storage.Foo),
		fmt.Sprintf("%d", res.Storage.Bar),
		fmt.Sprintf("%d", res.Storage.Foobar),
		fmt.Sprintf("%d", res.Storage.Robots),
		fmt.Sprintf("%d", res.Stats.FoobarsSold),
		shortDigest(res.Digest),
	); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	kinds := cat.Kinds()
	counts := make([]float64, len(kinds))
	for i, k := range kinds {
		counts[i] = float64(res.Stats.Selections[k])
	}
	shares := sampling.Normalize(counts)

	byKind := tablewriter.NewWriter(out)
	byKind.Header("Task", "Selected", "Completed", "Share")
	for i, k := range kinds {
		share := "-"
		if shares != nil {
			share = fmt.Sprintf("%.1f%%", shares[i]*100)
		}
		if err := byKind.Append(
			cat.Name(k),
			fmt.Sprintf("%d", res.Stats.Selections[k]),
			fmt.Sprintf("%d", res.Stats.Completed[k]),
			share,
		); err != nil {
			return err
		}
	}
	return byKind.Render()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
