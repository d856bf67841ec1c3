package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/glorpus-work/wabbaget/pkg/manifest"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list MANIFEST",
		Short: "List the Nexus Mods archives of a modlist",
		Long: `Parse a .wabbajack modlist and print the archives that would be downloaded.

Only archives hosted on Nexus Mods are listed; other sources are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			m, err := readManifest(cmd.Context(), newFS(), cfg, args[0])
			if err != nil {
				return err
			}
			return printManifest(cmd.OutOrStdout(), m, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")

	return cmd
}

func printManifest(w io.Writer, m *manifest.Manifest, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(TabWidth)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		return printManifestTable(w, m)
	default:
		return errors.Wrapf(errors.ErrInvalidOutput, "%q, must be one of: text, json, yaml", format)
	}
}

func printManifestTable(w io.Writer, m *manifest.Manifest) error {
	if m.Info.Name != "" {
		_, _ = fmt.Fprintf(w, "%s %s by %s\n\n", m.Info.Name, m.Info.Version, m.Info.Author)
	}
	if len(m.Entries) == 0 {
		_, _ = fmt.Fprintln(w, "No Nexus Mods archives in this modlist")
		return nil
	}

	tabWriter := tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "FILE\tSIZE\tGAME ID\tFILE ID\tDIGEST")
	for _, e := range m.Entries {
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%d\t%d\t%s\n",
			truncate(e.FileName, MaxNameLength), humanSize(e.Size), e.GameID, e.FileID, e.Digest)
	}
	if err := tabWriter.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "\n%d archives, %s total\n", len(m.Entries), humanSize(m.TotalSize()))
	return nil
}
