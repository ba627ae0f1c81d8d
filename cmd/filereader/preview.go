package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/filereader/pkg/coerce"
	"github.com/ajitpratap0/filereader/pkg/filereader"
)

func newPreviewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview LOCATION",
		Short: "Show the first rows of a location",
		Long: `Show the first rows of a location as a table. A malformed row ends the
preview with an ERROR_ROW line and a diagnostic instead of failing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPreview(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
		},
	}
	cmd.Flags().Int("limit", 20, "Number of rows to show")
	cmd.Flags().Bool("header", false, "The first row is a column header")
	return cmd
}

func (a *app) runPreview(ctx context.Context, stdout, stderr io.Writer, location string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	stream, err := filereader.Open(ctx, location, cfg,
		filereader.WithLogger(a.log),
		filereader.WithExtensions(coerce.DefaultRegistry()))
	if err != nil {
		return err
	}
	p := filereader.NewPreview(stream, a.v.GetInt("limit"))
	defer p.Close()

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	header := []string{"ID"}
	for _, c := range stream.Schema().OutputColumns() {
		header = append(header, c.Name)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for {
		r, ok := p.Next()
		if !ok {
			break
		}
		line := []string{r.Row.ID}
		for _, c := range r.Row.Cells {
			line = append(line, c.String())
		}
		fmt.Fprintln(tw, strings.Join(line, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if d := p.Diagnostic(); d != nil {
		fmt.Fprintf(stderr, "preview stopped: %s\n", d.Error())
	}
	return p.Err()
}
