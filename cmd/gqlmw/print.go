package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanpama/gqlmw/internal/schema"
)

func newPrintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Validate a schema file and print it as normalized SDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newConf(cmd)
			if err != nil {
				return err
			}
			path := v.GetString("schema")
			if path == "" {
				return fmt.Errorf("--schema is required")
			}
			s, err := schema.LoadFile(path)
			if err != nil {
				return err
			}
			sdl := schema.Render(s)

			out := v.GetString("out")
			if out == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), sdl)
				return err
			}
			return os.WriteFile(out, []byte(sdl), 0o644)
		},
	}
	cmd.Flags().String("schema", "", "GraphQL SDL file (required)")
	cmd.Flags().String("out", "", "Write SDL to file (default: stdout)")
	return cmd
}
