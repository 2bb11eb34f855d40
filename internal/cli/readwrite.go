package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avrkit-project/avrkit-go/pkg/fileio"
	"github.com/avrkit-project/avrkit-go/pkg/part"
)

// parseFormat maps a format flag value onto a fileio format.
func parseFormat(s string) (fileio.Format, error) {
	switch strings.ToLower(s) {
	case "auto", "a":
		return fileio.FormatAuto, nil
	case "ihex", "hex", "i":
		return fileio.FormatIntelHex, nil
	case "srec", "s":
		return fileio.FormatSRec, nil
	case "bin", "raw", "r":
		return fileio.FormatRawBin, nil
	case "elf", "e":
		return fileio.FormatELF, nil
	default:
		return fileio.FormatUnknown, fmt.Errorf("unknown format %q (auto, ihex, srec, bin, elf)", s)
	}
}

// resolveReadFormat settles the format for reading an existing file:
// explicit flag wins, auto tries content sniffing and then the file
// extension.
func resolveReadFormat(flagVal, path string) (fileio.Format, error) {
	format, err := parseFormat(flagVal)
	if err != nil {
		return fileio.FormatUnknown, err
	}
	if format != fileio.FormatAuto {
		return format, nil
	}
	format, err = fileio.Autodetect(path)
	if err != nil {
		return fileio.FormatUnknown, err
	}
	if format == fileio.FormatUnknown {
		format = fileio.DetectByExt(path)
	}
	if format == fileio.FormatUnknown {
		return format, fmt.Errorf("cannot determine the format of %s; use --format", path)
	}
	return format, nil
}

// resolveWriteFormat settles the format for creating a file: explicit
// flag wins, auto falls back to the extension and then Intel HEX.
func resolveWriteFormat(flagVal, path string) (fileio.Format, error) {
	format, err := parseFormat(flagVal)
	if err != nil {
		return fileio.FormatUnknown, err
	}
	if format != fileio.FormatAuto {
		return format, nil
	}
	if format = fileio.DetectByExt(path); format != fileio.FormatUnknown {
		return format, nil
	}
	return fileio.FormatIntelHex, nil
}

// memoriesFor expands a memory argument: "fuses" means every fuse
// memory of the part (requiring a '%' filename pattern), anything else
// is a single memory.
func memoriesFor(p *part.Part, memName, path string) ([]string, error) {
	if memName != "fuses" {
		return []string{memName}, nil
	}
	names := p.FuseNames()
	if len(names) == 0 {
		return nil, fmt.Errorf("part %s has no fuse memories", p.Desc)
	}
	if !strings.Contains(path, "%") {
		return nil, fmt.Errorf("reading all fuses needs a %% placeholder in the filename")
	}
	return names, nil
}

// NewReadCommand creates the device-to-file read command.
func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &sessionOptions{}
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "read <memory> <file>",
		Short: "Read a device memory into a file",
		Long: `Read a device memory into a file. The memory "fuses" reads every
fuse of the part; the filename then needs a % placeholder which is
replaced by each fuse's name.

Example:
  avrkit read -p m328p -c arduino -P /dev/ttyACM0 flash firmware.hex
  avrkit read -p avr64da48 -c dryrun fuses fuse_%.hex`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			memName, path := args[0], args[1]

			sess, p, err := openSession(rootOpts, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeSession(sess)

			names, err := memoriesFor(p, memName, path)
			if err != nil {
				return err
			}

			for _, name := range names {
				target := fileio.FuseFilename(path, name)
				format, err := resolveWriteFormat(formatFlag, target)
				if err != nil {
					return err
				}

				n, err := sess.Read(name)
				if err != nil {
					return err
				}
				written, err := fileio.Write(format, target, p, name, n)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d bytes of %s written to %s (%s)\n",
					written, name, target, format)
			}
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "auto", "file format (auto, ihex, srec, bin)")
	return cmd
}

// NewWriteCommand creates the file-to-device write command.
func NewWriteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &sessionOptions{}
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "write <memory> <file>",
		Short: "Write a file into a device memory",
		Long: `Load a file into the named memory's buffer and program it into the
device. The transfer length is the extent of the data the file
provides.

Example:
  avrkit write -p m328p -c arduino -P /dev/ttyACM0 flash firmware.hex`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			memName, path := args[0], args[1]

			format, err := resolveReadFormat(formatFlag, path)
			if err != nil {
				return err
			}

			sess, p, err := openSession(rootOpts, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeSession(sess)

			n, err := fileio.Read(format, path, p, memName, -1)
			if err != nil {
				return err
			}
			written, err := sess.Write(memName, n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d bytes of %s written from %s (%s)\n",
				written, memName, path, format)
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "auto", "file format (auto, ihex, srec, bin, elf)")
	return cmd
}

// NewEraseCommand creates the chip erase command.
func NewEraseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &sessionOptions{}

	cmd := &cobra.Command{
		Use:   "erase",
		Short: "Perform a chip erase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, p, err := openSession(rootOpts, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeSession(sess)

			if err := sess.ChipErase(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s erased\n", p.Desc)
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}
