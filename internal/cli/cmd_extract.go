package cli

import (
	"context"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/rlzstore/rlzstore/pkg/rlzconfig"
	"github.com/rlzstore/rlzstore/pkg/rlzerr"
	"github.com/rlzstore/rlzstore/pkg/rlzlog"
)

// ExtractCmd decodes a byte range of T via the block map, exercising C6's
// random-access path (spec.md §1 "fast random access").
func ExtractCmd() *Command {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	cf := addCollectionFlags(fs)

	return &Command{
		Flags: fs,
		Usage: "extract -c <dir> <offset> <len>",
		Short: "Decode a byte range of the original text via random access",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 2 {
				return rlzerr.New(rlzerr.Config, "extract requires exactly <offset> and <len>")
			}

			offset, err := strconv.Atoi(args[0])
			if err != nil {
				return rlzerr.Wrap(rlzerr.Config, err)
			}

			length, err := strconv.Atoi(args[1])
			if err != nil {
				return rlzerr.Wrap(rlzerr.Config, err)
			}

			b, _, err := openBuilder(cf, rlzconfig.Params{}, rlzlog.Nop{})
			if err != nil {
				return err
			}

			idx, err := b.BuildOrLoad(ctx)
			if err != nil {
				return err
			}

			out, err := idx.Reader.ExtractRange(offset, length)
			if err != nil {
				return err
			}

			o.Printf("%s", out)
			o.Println()

			return nil
		},
	}
}
