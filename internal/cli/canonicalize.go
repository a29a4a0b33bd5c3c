package cli

import (
	"encoding/json"

	"github.com/relab/fbas/topology"
	"github.com/spf13/cobra"
)

type canonicalOutput struct {
	Digest   string              `json:"digest"`
	Nodes    int                 `json:"nodes"`
	Topology *topology.Canonical `json:"topology"`
}

func newCanonicalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "canonicalize <topology>",
		Short: "Print the canonical form of a topology.",
		Long: `The canonicalize command prints the digest and the canonical form of a topology.
Topologies with equal digests denote the same quorum logic, and share one
analysis result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := topology.ParseFile(args[0])
			if err != nil {
				return err
			}
			c, err := topology.Canonicalize(raw)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(canonicalOutput{
				Digest:   c.Digest().String(),
				Nodes:    c.Len(),
				Topology: c,
			})
		},
	}
}
