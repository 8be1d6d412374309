package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/albapepper/sportsmeta/internal/config"
	"github.com/albapepper/sportsmeta/internal/sport"
)

func sportsCmd() *cobra.Command {
	sportsFile := config.Load().SportsFile
	cmd := &cobra.Command{
		Use:   "sports",
		Short: "List the known sports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := sport.Load(sportsFile)
			if err != nil {
				return fmt.Errorf("load sports: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSports(catalog.All(), shouldColorize(cmd.OutOrStdout())))
			return nil
		},
	}
	cmd.Flags().StringVar(&sportsFile, "sports-file", sportsFile, "TOML file with extra or replacement sport definitions")
	return cmd
}

func slotsCmd() *cobra.Command {
	sportsFile := config.Load().SportsFile
	cmd := &cobra.Command{
		Use:   "slots <sport>",
		Short: "Show the episode slots of a sport",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := sport.Load(sportsFile)
			if err != nil {
				return fmt.Errorf("load sports: %w", err)
			}
			def, err := catalog.Lookup(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSlots(def, shouldColorize(cmd.OutOrStdout())))
			return nil
		},
	}
	cmd.Flags().StringVar(&sportsFile, "sports-file", sportsFile, "TOML file with extra or replacement sport definitions")
	return cmd
}

func renderSports(defs []sport.Definition, colorize bool) string {
	tw := newTable([]column{
		{title: "ID"}, {title: "Name"}, {title: "League", count: true},
		{title: "Slots", count: true}, {title: "Max slots", count: true}, {title: "Variants"},
	}, colorize)
	for _, d := range defs {
		variants := make([]string, 0, len(d.Variants))
		for _, v := range d.Variants {
			variants = append(variants, v.Name)
		}
		tw.AppendRow(table.Row{d.ID, d.Name, d.LeagueID, len(d.Slots), d.MaxSlots(), strings.Join(variants, ", ")})
	}
	return tw.Render()
}

// renderSlots lists the standard slots, then each variant; * marks the slot
// that names the round.
func renderSlots(def sport.Definition, colorize bool) string {
	tw := newTable([]column{
		{title: "Variant", merge: true}, {title: "#", count: true}, {title: "Slug"}, {title: "Title"},
		{title: "Keywords"}, {title: "Day offset", count: true},
	}, colorize)
	add := func(variant string, slots []sport.Slot) {
		for i, s := range slots {
			title := s.Title
			if s.Primary {
				title += " *"
			}
			tw.AppendRow(table.Row{variant, i + 1, s.Slug, title, strings.Join(s.Keywords, ", "), s.DayOffset})
		}
	}
	add("standard", def.Slots)
	for _, v := range def.Variants {
		tw.AppendSeparator()
		add(v.Name, v.Slots)
	}
	return tw.Render()
}
