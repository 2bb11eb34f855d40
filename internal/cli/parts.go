package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/avrkit-project/avrkit-go/pkg/part"
)

// NewPartsCommand creates the parts listing command.
func NewPartsCommand(rootOpts *RootOptions) *cobra.Command {
	var family string

	cmd := &cobra.Command{
		Use:   "parts",
		Short: "List the devices known to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(rootOpts)
			if err != nil {
				return err
			}

			parts := c.Parts()
			if family != "" {
				parts = c.ClassifyParts()[part.Family(family)]
				if parts == nil {
					return fmt.Errorf("no parts in family %q (families: %v)", family, part.Families())
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSIGNATURE\tINTERFACES")
			for _, p := range parts {
				fmt.Fprintf(w, "%s\t%s\t%02x%02x%02x\t%s\n",
					p.ID, p.Desc, p.Signature[0], p.Signature[1], p.Signature[2], p.ProgModes)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "filter by device family (at90, attiny, atmega, atxmega, avr_de, other)")
	return cmd
}

// NewProgrammersCommand creates the programmer listing command.
func NewProgrammersCommand(rootOpts *RootOptions) *cobra.Command {
	var class string

	cmd := &cobra.Command{
		Use:   "programmers",
		Short: "List the programmers known to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(rootOpts)
			if err != nil {
				return err
			}

			pgms := c.Programmers()
			if class != "" {
				pgms = c.ClassifyProgrammers()[class]
				if pgms == nil {
					return fmt.Errorf("no programmers in class %q", class)
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCONNECTION\tINTERFACES\tDESCRIPTION")
			for _, d := range pgms {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name(), d.ConnType, d.ProgModes, d.Desc)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&class, "class", "", "filter by capability class (isp, tpi, pdi, updi, jtag, spm, hv, other)")
	return cmd
}
