package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/heic2txt/internal/vocabulary"
)

func newVocabCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Inspect the built-in vocabularies",
		Long: `Vocabularies are word lists passed to the engine as recognition hints
with --vocab. Engines without hint support ignore them.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the built-in vocabulary domains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "DOMAIN\tWORDS\tDESCRIPTION")
			for _, name := range vocabulary.Domains() {
				d, err := vocabulary.LookupDomain(name)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", d.Name, len(d.Words), d.Description)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <domain...>",
		Short: "Print the words of one or more domains ('all' for every domain)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := vocabulary.ForDomains(args)
			if err != nil {
				return err
			}
			a.logger.Debug("vocabulary resolved", "domains", args, "words", list.Len())
			for _, w := range list.Words() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), w)
			}
			return nil
		},
	})
	return cmd
}
