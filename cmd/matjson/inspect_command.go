package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/logicossoftware/go-matjson"
	"github.com/logicossoftware/go-matjson/geoid"
	"github.com/logicossoftware/go-matjson/material"
)

type inspectEntry struct {
	GeoID    uint64 `json:"geoid"`
	Fields   string `json:"fields"`
	Volume   string `json:"volume,omitempty"`
	Category string `json:"category"`
	Type     string `json:"type"`
	Bins0    int    `json:"bins0"`
	Bins1    int    `json:"bins1"`
}

type inspectReport struct {
	Summary matjson.Summary `json:"summary"`
	Entries []inspectEntry  `json:"entries"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "List the material entries of a document or container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := ctx.converter(cmd)
			if err != nil {
				return err
			}
			doc, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			tree, treeErr := conv.DocumentToTree(cmd.Context(), doc)
			if tree == nil {
				return treeErr
			}
			summary, _ := conv.Summarize(cmd.Context(), doc)
			report := inspectReport{Summary: summary, Entries: treeEntries(tree)}

			switch format {
			case "auto":
				if !isTerminal(cmd.OutOrStdout()) {
					format = "json"
				} else {
					format = "table"
				}
			case "table", "json":
			default:
				return fmt.Errorf("invalid --format %q (want auto, table or json)", format)
			}

			if format == "json" {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				return treeErr
			}
			rows := make([][]string, 0, len(report.Entries))
			for _, e := range report.Entries {
				rows = append(rows, []string{
					e.Fields, e.Volume, e.Category, e.Type,
					strconv.Itoa(e.Bins0), strconv.Itoa(e.Bins1),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"GeoID", "Volume", "Category", "Type", "Bins0", "Bins1"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "geoversion %s: %s\n", summary.GeoVersion, summary)
			return treeErr
		},
	}

	cmd.Flags().StringVar(&format, "format", "auto", "Output format (auto, table, json)")
	return cmd
}

func treeEntries(tree *matjson.Tree) []inspectEntry {
	var out []inspectEntry
	add := func(id geoid.ID, volume, category string, g material.Grid) {
		out = append(out, inspectEntry{
			GeoID:    uint64(id),
			Fields:   id.String(),
			Volume:   volume,
			Category: category,
			Type:     g.Kind.String(),
			Bins0:    g.Binning.Bins(0),
			Bins1:    g.Binning.Bins(1),
		})
	}
	for _, v := range tree.Volumes {
		if v.Material != nil {
			add(v.ID, v.Name, "volume", *v.Material)
		}
		for id, g := range v.Boundaries {
			add(id, v.Name, "boundary", g)
		}
		for _, l := range v.Layers {
			if l.Representing != nil {
				add(l.ID, v.Name, "representing", *l.Representing)
			}
			for id, g := range l.Sensitives {
				add(id, v.Name, "sensitive", g)
			}
			for id, g := range l.Approaches {
				add(id, v.Name, "approach", g)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GeoID != out[j].GeoID {
			return out[i].GeoID < out[j].GeoID
		}
		return out[i].Category < out[j].Category
	})
	return out
}
