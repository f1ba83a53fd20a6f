package cli

import (
	flag "github.com/spf13/pflag"

	"github.com/rlzstore/rlzstore/pkg/builder"
	"github.com/rlzstore/rlzstore/pkg/collection"
	"github.com/rlzstore/rlzstore/pkg/rlzconfig"
	"github.com/rlzstore/rlzstore/pkg/rlzlog"
)

// collectionFlags are the -c/--collection and --config flags shared by every
// subcommand that operates on a collection.
type collectionFlags struct {
	dir        *string
	configPath *string
}

func addCollectionFlags(fs *flag.FlagSet) collectionFlags {
	return collectionFlags{
		dir:        fs.StringP("collection", "c", "", "Collection directory (must contain a 'text' file)"),
		configPath: fs.String("config", "", "Explicit params file (JWCC)"),
	}
}

// openBuilder opens the collection at the resolved directory and constructs
// a Builder from the resolved parameter chain (defaults -> explicit file ->
// CLI overrides), per spec.md §2's control flow and SPEC_FULL.md §1.3.
func openBuilder(cf collectionFlags, overrides rlzconfig.Params, log rlzlog.Logger) (*builder.Builder, *collection.Store, error) {
	if *cf.dir == "" {
		return nil, nil, errMissingCollection
	}

	store, err := collection.Open(*cf.dir)
	if err != nil {
		return nil, nil, err
	}

	params, err := rlzconfig.Resolve("", *cf.configPath, overrides)
	if err != nil {
		return nil, nil, err
	}

	b, err := builder.New(store, params, log)
	if err != nil {
		return nil, nil, err
	}

	return b, store, nil
}

var errMissingCollection = missingFlagError("missing required -c/--collection <dir>")

type missingFlagError string

func (e missingFlagError) Error() string { return string(e) }
