package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/logicossoftware/go-matjson"
)

func newSkeletonCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "skeleton <file>",
		Short: "Strip material values, keeping structure and binning",
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
			skel, skelErr := conv.Skeleton(cmd.Context(), doc)
			if skel == nil {
				return skelErr
			}
			if err := writeOutput(cmd, outPath, func(w io.Writer) error {
				return matjson.WriteDocument(w, skel)
			}); err != nil {
				return err
			}
			return skelErr
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default stdout)")
	return cmd
}
