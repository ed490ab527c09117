package main

import (
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func newResolveCmd(f *rootFlags) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "resolve --from IMPORTER SPECIFIER",
		Short: "Resolve an import specifier the way the pipeline does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEngine(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer e.Close()

			importer, err := filepath.Abs(from)
			if err != nil {
				return errors.Wrap(err, "importer")
			}
			path, ok := e.ResolveID(args[0], importer)
			if !ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "unresolved: %s\n", args[0])
				return errUnresolved
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Importing file")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
