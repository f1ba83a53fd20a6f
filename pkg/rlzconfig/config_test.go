package rlzconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rlzstore/rlzstore/pkg/rlzconfig"
)

func TestDefaults_Valid(t *testing.T) {
	t.Parallel()

	if err := rlzconfig.Defaults().Validate(); err != nil {
		t.Fatalf("Defaults() must validate, got %v", err)
	}
}

func TestValidate_RejectsInvalidFields(t *testing.T) {
	t.Parallel()

	base := rlzconfig.Defaults()

	tests := []struct {
		name    string
		mutate  func(p rlzconfig.Params) rlzconfig.Params
	}{
		{"zero B", func(p rlzconfig.Params) rlzconfig.Params { p.B = 0; return p }},
		{"zero W", func(p rlzconfig.Params) rlzconfig.Params { p.W = 0; return p }},
		{"zero BF", func(p rlzconfig.Params) rlzconfig.Params { p.BF = 0; return p }},
		{"zero Tau", func(p rlzconfig.Params) rlzconfig.Params { p.Tau = 0; return p }},
		{"bad epsilon", func(p rlzconfig.Params) rlzconfig.Params { p.CMSEpsilon = 1.5; return p }},
		{"bad delta", func(p rlzconfig.Params) rlzconfig.Params { p.CMSDelta = 0; return p }},
		{"zero threads", func(p rlzconfig.Params) rlzconfig.Params { p.NumThreads = 0; return p }},
		{"bad selection", func(p rlzconfig.Params) rlzconfig.Params { p.Selection = "bogus"; return p }},
		{"bad offset coder", func(p rlzconfig.Params) rlzconfig.Params { p.OffsetCoder = "bogus"; return p }},
		{"bad len coder", func(p rlzconfig.Params) rlzconfig.Params { p.LenCoder = "bogus"; return p }},
		{"bad block map", func(p rlzconfig.Params) rlzconfig.Params { p.BlockMap = "bogus"; return p }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.mutate(base).Validate(); err == nil {
				t.Fatal("expected Validate error")
			}
		})
	}
}

func TestMerge_OverridesOnlyNonZeroFields(t *testing.T) {
	t.Parallel()

	base := rlzconfig.Defaults()
	override := rlzconfig.Params{NumThreads: 16, Rebuild: true}

	merged := base.Merge(override)

	if merged.NumThreads != 16 {
		t.Fatalf("NumThreads = %d, want 16", merged.NumThreads)
	}

	if !merged.Rebuild {
		t.Fatal("Rebuild should be true")
	}

	if merged.B != base.B {
		t.Fatalf("B = %d, want unchanged %d", merged.B, base.B)
	}

	if merged.Selection != base.Selection {
		t.Fatalf("Selection = %q, want unchanged %q", merged.Selection, base.Selection)
	}
}

func TestLoadFile_MissingFileReturnsZeroValue(t *testing.T) {
	t.Parallel()

	p, err := rlzconfig.LoadFile(filepath.Join(t.TempDir(), "does-not-exist.jsonc"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if p != (rlzconfig.Params{}) {
		t.Fatalf("expected zero Params for missing file, got %+v", p)
	}
}

func TestLoadFile_ParsesCommentsAndTrailingCommas(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "params.jsonc")

	const body = `{
		// override just the thread count and budget
		"num_threads": 8,
		"dict_budget_bytes": 1048576,
	}`

	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := rlzconfig.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if p.NumThreads != 8 {
		t.Fatalf("NumThreads = %d, want 8", p.NumThreads)
	}

	if p.BudgetBytes != 1048576 {
		t.Fatalf("BudgetBytes = %d, want 1048576", p.BudgetBytes)
	}
}

func TestResolve_PrecedenceChain(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	projectPath := filepath.Join(dir, "project.jsonc")
	explicitPath := filepath.Join(dir, "explicit.jsonc")

	if err := os.WriteFile(projectPath, []byte(`{"num_threads": 2, "heavy_threshold": 50}`), 0o644); err != nil {
		t.Fatalf("WriteFile project: %v", err)
	}

	if err := os.WriteFile(explicitPath, []byte(`{"num_threads": 6}`), 0o644); err != nil {
		t.Fatalf("WriteFile explicit: %v", err)
	}

	cfg, err := rlzconfig.Resolve(projectPath, explicitPath, rlzconfig.Params{Rebuild: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if cfg.NumThreads != 6 {
		t.Fatalf("NumThreads = %d, want 6 (explicit overrides project)", cfg.NumThreads)
	}

	if cfg.Tau != 50 {
		t.Fatalf("Tau = %d, want 50 (inherited from project)", cfg.Tau)
	}

	if !cfg.Rebuild {
		t.Fatal("Rebuild should be true from CLI override")
	}

	if cfg.B != rlzconfig.Defaults().B {
		t.Fatalf("B = %d, want unchanged default %d", cfg.B, rlzconfig.Defaults().B)
	}
}

func TestResolve_InvalidMergedParamsRejected(t *testing.T) {
	t.Parallel()

	_, err := rlzconfig.Resolve("", "", rlzconfig.Params{NumThreads: -1})
	if err == nil {
		t.Fatal("expected validation error for negative thread count")
	}
}
