package main

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"transpipe/internal/logging"
)

func newRenderCmd(f *rootFlags) *cobra.Command {
	var (
		outDir    string
		sourcemap bool
	)
	cmd := &cobra.Command{
		Use:   "render CHUNK...",
		Short: "Run the output stages over built chunks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEngine(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer e.Close()

			out := e.Output()
			if cmd.Flags().Changed("sourcemap") {
				out.Sourcemap = sourcemap
			}
			for _, chunk := range args {
				code, err := os.ReadFile(chunk)
				if err != nil {
					return errors.Wrap(err, "read chunk")
				}
				id := filepath.ToSlash(filepath.Clean(chunk))
				res, err := e.RenderChunk(cmd.Context(), string(code), id, out)
				if err != nil {
					return err
				}
				if res == nil {
					logging.Component("cli").Debug("chunk untouched", "chunk", id)
					continue
				}
				dest := chunk
				if outDir != "" {
					dest = filepath.Join(outDir, filepath.Base(chunk))
				}
				if err := writeResult(dest, res); err != nil {
					return errors.Wrapf(err, "%s", chunk)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Write results here instead of in place")
	cmd.Flags().BoolVar(&sourcemap, "sourcemap", false, "Produce mappings (defaults to output.sourcemap of the manifest)")
	return cmd
}
