package main

import (
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/albapepper/sportsmeta/internal/pipeline"
)

// column describes one table column; counts are right-aligned.
type column struct {
	title string
	count bool
	merge bool // collapse repeated values, used for group labels
}

func newTable(columns []column, colorize bool) table.Writer {
	tw := table.NewWriter()
	if colorize {
		tw.SetStyle(table.StyleColoredBright)
	} else {
		tw.SetStyle(table.StyleRounded)
	}

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft, AutoMerge: c.merge}
		if c.count {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)
	return tw
}

// renderSummary groups the run counters by pipeline stage.
func renderSummary(r *pipeline.Result, colorize bool) string {
	tw := newTable([]column{{title: "Stage", merge: true}, {title: "Outcome"}, {title: "Count", count: true}}, colorize)

	tw.AppendRows([]table.Row{
		{"Rounds", "discovered", r.RoundsDiscovered},
		{"Rounds", "empty", r.RoundsEmpty},
		{"Rounds", "failed", r.RoundsFailed},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Episodes", "bound", r.EpisodesBound},
		{"Episodes", "unbound", r.EpisodesUnbound},
		{"Episodes", "events ignored", r.EventsIgnored},
	})
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Assets", "downloaded", r.AssetsDownloaded},
		{"Assets", "url only", r.AssetsURLOnly},
		{"Assets", "skipped", r.AssetsSkipped},
	})
	tw.AppendSeparator()

	written := "not written"
	if r.Written {
		written = "written"
	}
	tw.AppendRows([]table.Row{
		{"Output", written, r.Output},
		{"Output", "errors", len(r.Errors)},
		{"Output", "duration", r.Duration.Round(time.Millisecond).String()},
	})
	return tw.Render()
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
