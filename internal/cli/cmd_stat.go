package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/rlzstore/rlzstore/pkg/rlzconfig"
	"github.com/rlzstore/rlzstore/pkg/rlzlog"
)

// StatCmd prints the dict hash, dictionary size, block count and basic build
// statistics (SPEC_FULL.md §3, grounded on rlzs-index-statistics.cpp):
// average factor length, literal ratio, dictionary utilization.
func StatCmd() *Command {
	fs := flag.NewFlagSet("stat", flag.ContinueOnError)
	cf := addCollectionFlags(fs)

	return &Command{
		Flags: fs,
		Usage: "stat -c <dir>",
		Short: "Print dict hash, dictionary size, block count, and build statistics",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			b, _, err := openBuilder(cf, rlzconfig.Params{}, rlzlog.Nop{})
			if err != nil {
				return err
			}

			stats, err := b.Stats(ctx)
			if err != nil {
				return err
			}

			idx, err := b.BuildOrLoad(ctx)
			if err != nil {
				return err
			}

			o.Printf("dict_hash:          %s\n", idx.DictHash)
			o.Printf("dict_bytes:         %d\n", stats.DictBytes)
			o.Printf("blocks:             %d\n", idx.Map.NumBlocks())
			o.Printf("total_factors:      %d\n", stats.TotalFactors)
			o.Printf("literal_factors:    %d\n", stats.LiteralFactors)
			o.Printf("literal_ratio:      %.4f\n", stats.LiteralRatio)
			o.Printf("avg_factor_len:     %.2f\n", stats.AverageFactorLen)
			o.Printf("dict_utilization:   %.4f\n", stats.DictUtilization)

			return nil
		},
	}
}
