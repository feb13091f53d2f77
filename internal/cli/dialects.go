package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/stencil/internal/dialect"
)

// DialectInfo describes one registered dialect.
type DialectInfo struct {
	Name       string   `json:"name"`
	Aliases    []string `json:"aliases,omitempty"`
	Example    string   `json:"example"` // quoted identifier and marker
	Positional bool     `json:"positional"`
	Paging     string   `json:"paging"`
	Upsert     string   `json:"upsert"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "dialects",
		Short:         "List supported dialects",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout())
			infos := listDialects(dialect.Default())
			return f.Success(infos, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tALIASES\tEXAMPLE\tPAGING\tUPSERT")
				for _, d := range infos {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Name, strings.Join(d.Aliases, ","), d.Example, d.Paging, d.Upsert)
				}
				tw.Flush()
			})
		},
	}
}

func listDialects(r *dialect.Registry) []DialectInfo {
	aliases := make(map[string][]string)
	for _, a := range r.Aliases() {
		if d, err := r.Lookup(a); err == nil {
			aliases[d.Name] = append(aliases[d.Name], a)
		}
	}

	var infos []DialectInfo
	for _, name := range r.Names() {
		d, err := r.Lookup(name)
		if err != nil {
			continue
		}
		infos = append(infos, DialectInfo{
			Name:       d.Name,
			Aliases:    aliases[d.Name],
			Example:    d.QuoteIdentifier("id") + " = " + d.Marker("id"),
			Positional: d.Positional,
			Paging:     d.Paging.String(),
			Upsert:     d.Upsert.String(),
		})
	}
	return infos
}
