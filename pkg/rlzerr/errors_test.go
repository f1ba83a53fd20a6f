package rlzerr_test

import (
	"errors"
	"testing"

	"github.com/rlzstore/rlzstore/pkg/rlzerr"
)

func TestWrap_NilIsNil(t *testing.T) {
	t.Parallel()

	if rlzerr.Wrap(rlzerr.IO, nil) != nil {
		t.Fatal("Wrap(kind, nil) must return nil")
	}
}

func TestErrorMessage_IncludesContext(t *testing.T) {
	t.Parallel()

	err := rlzerr.New(rlzerr.Corruption, "block offsets not monotone",
		rlzerr.WithStage("C6"), rlzerr.WithArtifact("blockoffsets-dhash=ab12.bin"), rlzerr.WithBlock(41))

	got := err.Error()
	want := "block offsets not monotone (artifact=blockoffsets-dhash=ab12.bin stage=C6 block=41)"

	if got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestIs_MatchesKindSentinel(t *testing.T) {
	t.Parallel()

	err := rlzerr.New(rlzerr.Build, "zero blocks picked despite positive budget")

	if !errors.Is(err, rlzerr.BuildErr) {
		t.Fatal("expected errors.Is(err, rlzerr.BuildErr) to be true")
	}

	if errors.Is(err, rlzerr.CoderErr) {
		t.Fatal("expected errors.Is(err, rlzerr.CoderErr) to be false")
	}
}

func TestWrap_InheritsAndOverridesContext(t *testing.T) {
	t.Parallel()

	inner := rlzerr.New(rlzerr.IO, "short read", rlzerr.WithArtifact("dict.bin"))
	outer := rlzerr.Wrap(rlzerr.Corruption, inner, rlzerr.WithStage("C1"))

	if outer.Artifact != "dict.bin" {
		t.Fatalf("Artifact = %q, want inherited %q", outer.Artifact, "dict.bin")
	}

	if outer.Stage != "C1" {
		t.Fatalf("Stage = %q, want %q", outer.Stage, "C1")
	}

	if outer.Kind != rlzerr.Corruption {
		t.Fatalf("Kind = %v, want %v", outer.Kind, rlzerr.Corruption)
	}
}
