package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/avrkit-project/avrkit-go/pkg/fuse"
)

// NewFuseCommand creates the fuse codec command group.
func NewFuseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fuse",
		Short: "Decode and encode fuse bytes against a part's bitfield table",
	}
	cmd.AddCommand(newFuseDissectCommand(rootOpts))
	cmd.AddCommand(newFuseDefaultCommand(rootOpts))
	cmd.AddCommand(newFuseSynthCommand(rootOpts))
	return cmd
}

func newFuseDissectCommand(rootOpts *RootOptions) *cobra.Command {
	var partName string

	cmd := &cobra.Command{
		Use:   "dissect <fuse> <value>",
		Short: "Decode a raw fuse byte into named bitfield selections",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, key, err := fuseTable(rootOpts, partName, args[0])
			if err != nil {
				return err
			}
			val, err := parseByte(args[1])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, sel := range fuse.Dissect(table, key, val) {
				fmt.Fprintf(w, "%s\t%s\n", sel.Name, sel.Label)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&partName, "part", "p", "", "device name or id (required)")
	_ = cmd.MarkFlagRequired("part")
	return cmd
}

func newFuseDefaultCommand(rootOpts *RootOptions) *cobra.Command {
	var partName string

	cmd := &cobra.Command{
		Use:   "default [fuse]",
		Short: "Show the factory default fuse bytes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(rootOpts)
			if err != nil {
				return err
			}
			p, err := lookupPart(c, partName)
			if err != nil {
				return err
			}

			keys := fuse.Keys(p.Fuses)
			if len(args) == 1 {
				key, err := resolveFuseKey(p.Fuses, args[0])
				if err != nil {
					return err
				}
				keys = []string{key}
			}

			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t0x%02x\n", key, fuse.Default(p.Fuses, key))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&partName, "part", "p", "", "device name or id (required)")
	_ = cmd.MarkFlagRequired("part")
	return cmd
}

func newFuseSynthCommand(rootOpts *RootOptions) *cobra.Command {
	var partName string

	cmd := &cobra.Command{
		Use:   "synth <fuse> [field=label]...",
		Short: "Encode named bitfield selections into a raw fuse byte",
		Long: `Encode bitfield selections into a raw fuse byte. Fields not named
keep the erased-fuse baseline: every known mask cleared, all other
bits high.

Example:
  avrkit fuse synth -p m328p lfuse SUT_CKSEL=intrcosc_8mhz_6ck_14ck_65ms CKDIV8=no_division`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, key, err := fuseTable(rootOpts, partName, args[0])
			if err != nil {
				return err
			}

			var sels []fuse.Selection
			for _, arg := range args[1:] {
				name, label, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("selection %q: want field=label", arg)
				}
				sels = append(sels, fuse.Selection{Name: name, Label: label})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "0x%02x\n", fuse.Synthesize(table, key, sels))
			return nil
		},
	}

	cmd.Flags().StringVarP(&partName, "part", "p", "", "device name or id (required)")
	_ = cmd.MarkFlagRequired("part")
	return cmd
}

// fuseTable loads the part's bitfield table and resolves the fuse key.
func fuseTable(rootOpts *RootOptions, partName, fuseName string) ([]fuse.Bitfield, string, error) {
	c, err := loadCatalog(rootOpts)
	if err != nil {
		return nil, "", err
	}
	p, err := lookupPart(c, partName)
	if err != nil {
		return nil, "", err
	}
	if len(p.Fuses) == 0 {
		return nil, "", fmt.Errorf("part %s declares no fuse bitfield table", p.Desc)
	}
	key, err := resolveFuseKey(p.Fuses, fuseName)
	if err != nil {
		return nil, "", err
	}
	return p.Fuses, key, nil
}

// resolveFuseKey validates a fuse name against the table's known keys.
// Logical alias names are accepted when the table declares them as
// memstrs ("wdtcfg" resolves to "fuse0").
func resolveFuseKey(table []fuse.Bitfield, name string) (string, error) {
	keys := fuse.Keys(table)
	for _, k := range keys {
		if k == name {
			return k, nil
		}
	}
	for _, b := range table {
		if b.Memstr == name {
			return b.Key(), nil
		}
	}
	return "", fmt.Errorf("unknown fuse %q (known: %s)", name, strings.Join(keys, ", "))
}

// parseByte parses a fuse byte in decimal or 0x-prefixed hex.
func parseByte(s string) (int, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte value %q", s)
	}
	return int(v), nil
}
