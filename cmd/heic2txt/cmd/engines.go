package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/heic2txt/internal/engine"
)

type engineInfo struct {
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Capabilities engine.Capabilities `json:"capabilities"`
	Available    bool                `json:"available"`
	Problem      string              `json:"problem,omitempty"`
}

func newEnginesCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "engines",
		Short: "List recognition engines, their capabilities and availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.cfg.ToEngineOptions()
			if err != nil {
				return err
			}

			var infos []engineInfo
			for _, name := range engine.Names() {
				d, _ := engine.Lookup(name)
				info := engineInfo{Name: name, Description: d.Description, Capabilities: d.Capabilities, Available: true}
				if err := engine.Available(name, opts); err != nil {
					info.Available = false
					info.Problem = err.Error()
				}
				infos = append(infos, info)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ENGINE\tAVAILABLE\tFAST\tVOCAB\tLANG\tGPU\tDESCRIPTION")
			for _, info := range infos {
				c := info.Capabilities
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", info.Name, yesNo(info.Available),
					yesNo(c.FastMode), yesNo(c.Vocabulary), yesNo(c.Language), yesNo(c.GPU), info.Description)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, info := range infos {
				if !info.Available {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%s: %s", info.Name, info.Problem)
				}
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
