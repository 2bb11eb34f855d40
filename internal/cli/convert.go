package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avrkit-project/avrkit-go/pkg/fileio"
)

// NewConvertCommand creates the file format conversion command. The
// conversion goes through a memory buffer of the named part, so the
// output is bounded and validated by the real memory geometry.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		partName string
		memName  string
		fromFlag string
		toFlag   string
	)

	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a firmware file between formats",
		Long: `Convert a firmware file between Intel HEX, Motorola S-record and raw
binary, using a device memory as the staging buffer. ELF input is
accepted; ELF output is not.

Example:
  avrkit convert -p m328p firmware.elf firmware.hex
  avrkit convert -p m328p -m eeprom data.bin data.eep`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]

			c, err := loadCatalog(rootOpts)
			if err != nil {
				return err
			}
			p, err := lookupPart(c, partName)
			if err != nil {
				return err
			}

			inFormat, err := resolveReadFormat(fromFlag, in)
			if err != nil {
				return err
			}
			outFormat, err := resolveWriteFormat(toFlag, out)
			if err != nil {
				return err
			}

			if _, err := fileio.Read(inFormat, in, p, memName, -1); err != nil {
				return err
			}
			// Length 0 writes exactly the bytes the input provided.
			n, err := fileio.Write(outFormat, out, p, memName, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) -> %s (%s), %d bytes\n",
				in, inFormat, out, outFormat, n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&partName, "part", "p", "", "device whose memory stages the conversion (required)")
	cmd.Flags().StringVarP(&memName, "memory", "m", "flash", "memory to stage through")
	cmd.Flags().StringVar(&fromFlag, "from", "auto", "input format")
	cmd.Flags().StringVar(&toFlag, "to", "auto", "output format")
	_ = cmd.MarkFlagRequired("part")
	return cmd
}
