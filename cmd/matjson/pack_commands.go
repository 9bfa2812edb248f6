package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/logicossoftware/go-matjson"
)

func newPackCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	var compression string

	cmd := &cobra.Command{
		Use:   "pack <file>",
		Short: "Wrap a JSON document in a compressed container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := matjson.ParseCompression(compression)
			if err != nil {
				return err
			}
			doc, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if outPath == "" {
				return fmt.Errorf("--output is required")
			}
			return writeOutput(cmd, outPath, func(w io.Writer) error {
				return matjson.WriteContainer(w, doc, matjson.WithCompression(comp))
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output container file (- for stdout)")
	cmd.Flags().StringVar(&compression, "compression", matjson.CompZSTD.String(), "Compression (none, zip, zstd, lz4, brotli)")
	return cmd
}

func newUnpackCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "unpack <file>",
		Short: "Write the JSON document held by a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd, outPath, func(w io.Writer) error {
				return matjson.WriteDocument(w, doc)
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default stdout)")
	return cmd
}
