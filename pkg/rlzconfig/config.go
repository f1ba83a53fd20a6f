// Package rlzconfig defines the tunable parameters of the RLZ build pipeline and
// the precedence chain used to resolve them (defaults -> project file -> explicit
// file -> CLI overrides), mirroring how the teacher CLI layers its own config.
package rlzconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/rlzstore/rlzstore/pkg/rlzerr"
)

// SelectionPolicy converts a self-index match interval [sp, ep] to a concrete
// dictionary offset (spec.md §4.4).
type SelectionPolicy string

const (
	// SelectFirst picks the smallest offset in D among matching suffixes.
	SelectFirst SelectionPolicy = "first"
	// SelectRandom picks uniformly over the matching interval.
	SelectRandom SelectionPolicy = "random"
	// SelectSample deterministically samples a fixed position within the
	// interval (a cheap stand-in for "suffix-array-sample").
	SelectSample SelectionPolicy = "sample"
)

func (p SelectionPolicy) valid() bool {
	switch p {
	case SelectFirst, SelectRandom, SelectSample:
		return true
	default:
		return false
	}
}

// CoderKind names a blocked factor-field coder (spec.md §4.6).
type CoderKind string

const (
	CoderRaw32         CoderKind = "u32"
	CoderVarbyte       CoderKind = "varbyte"
	CoderInterpolative CoderKind = "interpolative"
)

func (c CoderKind) valid() bool {
	switch c {
	case CoderRaw32, CoderVarbyte, CoderInterpolative:
		return true
	default:
		return false
	}
}

// BlockMapKind names the block-map representation (spec.md §4.6).
type BlockMapKind string

const (
	// BlockMapPlain stores BO/BC as flat arrays, mmapped for O(1) access.
	BlockMapPlain BlockMapKind = "plain"
	// BlockMapEliasFano is accepted as a setting, but pkg/blockmap writes the
	// same plain BO/BC encoding for it; BO is not Elias-Fano compressed.
	BlockMapEliasFano BlockMapKind = "elias-fano"
)

func (k BlockMapKind) valid() bool {
	switch k {
	case BlockMapPlain, BlockMapEliasFano:
		return true
	default:
		return false
	}
}

// Params holds every compile-time-or-config parameter from spec.md §6.
type Params struct {
	// B is the sampling block size in bytes (dictionary candidate unit).
	B uint64 `json:"sampling_block_size"`
	// W is the w-gram window width in bytes.
	W uint64 `json:"window_width"`
	// BF is the factorization block size in bytes (random-access granularity).
	BF uint64 `json:"factorization_block_size"`
	// BudgetBytes is the maximum dictionary size S.
	BudgetBytes uint64 `json:"dict_budget_bytes"`
	// Tau is the heavy-gram frequency threshold.
	Tau uint64 `json:"heavy_threshold"`
	// CMSEpsilon and CMSDelta size the Count-Min Sketch (relative error / failure
	// probability).
	CMSEpsilon float64 `json:"cms_epsilon"`
	CMSDelta   float64 `json:"cms_delta"`
	// NumThreads is the worker count for sketch build and factorization.
	NumThreads int `json:"num_threads"`
	// Selection is the factor offset-selection policy.
	Selection SelectionPolicy `json:"selection_policy"`
	// OffsetCoder and LenCoder choose the blocked coder for factor offsets/lengths.
	OffsetCoder CoderKind `json:"offset_coder"`
	LenCoder    CoderKind `json:"len_coder"`
	// BlockMap chooses the block-map representation.
	BlockMap BlockMapKind `json:"block_map"`
	// Rebuild forces every stage to rebuild even if cached artifacts exist.
	Rebuild bool `json:"rebuild"`
}

// Defaults returns the documented default parameters (spec.md §6).
func Defaults() Params {
	return Params{
		B:           1024,
		W:           16,
		BF:          65536,
		BudgetBytes: 64 << 20,
		Tau:         1000,
		CMSEpsilon:  0.0001,
		CMSDelta:    0.01,
		NumThreads:  4,
		Selection:   SelectFirst,
		OffsetCoder: CoderVarbyte,
		LenCoder:    CoderVarbyte,
		BlockMap:    BlockMapPlain,
	}
}

// Validate checks structural sanity, returning a [rlzerr.Config]-kind error
// naming the first violated constraint.
func (p Params) Validate() error {
	switch {
	case p.B == 0:
		return rlzerr.New(rlzerr.Config, "sampling_block_size (B) must be > 0")
	case p.W == 0:
		return rlzerr.New(rlzerr.Config, "window_width (W) must be > 0")
	case p.BF == 0:
		return rlzerr.New(rlzerr.Config, "factorization_block_size (BF) must be > 0")
	case p.Tau == 0:
		return rlzerr.New(rlzerr.Config, "heavy_threshold (tau) must be > 0")
	case p.CMSEpsilon <= 0 || p.CMSEpsilon >= 1:
		return rlzerr.New(rlzerr.Config, "cms_epsilon must be in (0, 1)")
	case p.CMSDelta <= 0 || p.CMSDelta >= 1:
		return rlzerr.New(rlzerr.Config, "cms_delta must be in (0, 1)")
	case p.NumThreads <= 0:
		return rlzerr.New(rlzerr.Config, "num_threads must be > 0")
	case !p.Selection.valid():
		return rlzerr.Newf(rlzerr.Config, "unknown selection_policy %q", p.Selection)
	case !p.OffsetCoder.valid():
		return rlzerr.Newf(rlzerr.Config, "unknown offset_coder %q", p.OffsetCoder)
	case !p.LenCoder.valid():
		return rlzerr.Newf(rlzerr.Config, "unknown len_coder %q", p.LenCoder)
	case !p.BlockMap.valid():
		return rlzerr.Newf(rlzerr.Config, "unknown block_map %q", p.BlockMap)
	default:
		return nil
	}
}

// Merge layers override on top of p: any non-zero field in override replaces
// the corresponding field in p. Used for the project-file -> CLI-flag step of
// the precedence chain.
func (p Params) Merge(override Params) Params {
	out := p

	if override.B != 0 {
		out.B = override.B
	}

	if override.W != 0 {
		out.W = override.W
	}

	if override.BF != 0 {
		out.BF = override.BF
	}

	if override.BudgetBytes != 0 {
		out.BudgetBytes = override.BudgetBytes
	}

	if override.Tau != 0 {
		out.Tau = override.Tau
	}

	if override.CMSEpsilon != 0 {
		out.CMSEpsilon = override.CMSEpsilon
	}

	if override.CMSDelta != 0 {
		out.CMSDelta = override.CMSDelta
	}

	if override.NumThreads != 0 {
		out.NumThreads = override.NumThreads
	}

	if override.Selection != "" {
		out.Selection = override.Selection
	}

	if override.OffsetCoder != "" {
		out.OffsetCoder = override.OffsetCoder
	}

	if override.LenCoder != "" {
		out.LenCoder = override.LenCoder
	}

	if override.BlockMap != "" {
		out.BlockMap = override.BlockMap
	}

	if override.Rebuild {
		out.Rebuild = true
	}

	return out
}

// LoadFile reads a JWCC (JSON-with-comments) params file, as produced by
// operators annotating their tuning choices in-line. Missing fields are left
// at the zero value so callers can [Params.Merge] the result onto defaults.
func LoadFile(path string) (Params, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Params{}, nil
		}

		return Params{}, rlzerr.Wrap(rlzerr.IO, err, rlzerr.WithArtifact(path))
	}

	standard, err := hujson.Standardize(raw)
	if err != nil {
		return Params{}, rlzerr.Wrap(rlzerr.Config, fmt.Errorf("parse %s: %w", path, err), rlzerr.WithArtifact(path))
	}

	var p Params

	if err := json.Unmarshal(standard, &p); err != nil {
		return Params{}, rlzerr.Wrap(rlzerr.Config, fmt.Errorf("decode %s: %w", path, err), rlzerr.WithArtifact(path))
	}

	return p, nil
}

// Resolve implements the full precedence chain: defaults -> project file ->
// explicit file -> CLI overrides (highest wins).
func Resolve(projectFile, explicitFile string, cliOverrides Params) (Params, error) {
	cfg := Defaults()

	if projectFile != "" {
		proj, err := LoadFile(projectFile)
		if err != nil {
			return Params{}, err
		}

		cfg = cfg.Merge(proj)
	}

	if explicitFile != "" {
		explicit, err := LoadFile(explicitFile)
		if err != nil {
			return Params{}, err
		}

		cfg = cfg.Merge(explicit)
	}

	cfg = cfg.Merge(cliOverrides)

	if err := cfg.Validate(); err != nil {
		return Params{}, err
	}

	return cfg, nil
}
