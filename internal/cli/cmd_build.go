package cli

import (
	"context"
	"log/slog"

	flag "github.com/spf13/pflag"

	"github.com/rlzstore/rlzstore/pkg/rlzconfig"
	"github.com/rlzstore/rlzstore/pkg/rlzlog"
)

// BuildCmd runs build_or_load over a collection (spec.md §2, §6).
func BuildCmd() *Command {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	cf := addCollectionFlags(fs)
	rebuild := fs.Bool("rebuild", false, "Force every stage to rebuild even if artifacts exist")
	threads := fs.Int("threads", 0, "Worker count for sketch build and factorization (0 = use config/default)")
	dictSize := fs.Uint64("dict-size", 0, "Dictionary budget in bytes (0 = use config/default)")

	return &Command{
		Flags: fs,
		Usage: "build -c <dir> [flags]",
		Short: "Build (or load) the RLZ index for a collection",
		Long: "Runs the full pipeline (dictionary build, factorization, coding) over the\n" +
			"collection's text file, skipping any stage whose artifact already exists\n" +
			"unless --rebuild is given.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			overrides := rlzconfig.Params{Rebuild: *rebuild}
			if *threads > 0 {
				overrides.NumThreads = *threads
			}

			if *dictSize > 0 {
				overrides.BudgetBytes = *dictSize
			}

			log := rlzlog.New(errWriter{o}, slog.LevelInfo)

			b, _, err := openBuilder(cf, overrides, log)
			if err != nil {
				return err
			}

			idx, err := b.BuildOrLoad(ctx)
			if err != nil {
				return err
			}

			o.Printf("built: dict_hash=%s dict_bytes=%d blocks=%d\n", idx.DictHash, len(idx.Dict), idx.Map.NumBlocks())

			return nil
		},
	}
}

// errWriter adapts an *IO's error stream to io.Writer for the logger.
type errWriter struct{ io *IO }

func (w errWriter) Write(p []byte) (int, error) {
	w.io.ErrPrintln(string(p[:len(p)-trailingNewline(p)]))

	return len(p), nil
}

func trailingNewline(p []byte) int {
	if len(p) > 0 && p[len(p)-1] == '\n' {
		return 1
	}

	return 0
}
