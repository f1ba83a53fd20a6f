// Package rlzerr defines the uniform error taxonomy returned by every stage of the
// RLZ build pipeline.
package rlzerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the pipeline's recognized failure categories.
type Kind int

const (
	// Unknown is the zero value; never returned by this package's constructors.
	Unknown Kind = iota

	// Config signals invalid budget/threshold/thread-count parameters or missing
	// required corpus files.
	Config

	// IO signals a read/write/mmap failure, a partial write, or a checksum mismatch
	// on reload.
	IO

	// Corruption signals an artifact that is present but fails structural
	// validation (non-monotone block offsets, dict hash mismatch, bad header).
	Corruption

	// Build signals a build-time invariant failure: an empty heavy-gram table, or
	// zero dictionary blocks picked despite a positive budget.
	Build

	// Coder signals that decoding a factor block consumed a number of bits that
	// does not match the block's span recorded in the block map.
	Coder
)

// String renders the kind the way it appears in error messages and log fields.
func (k Kind) String() string {
	switch k {
	case Config:
		return "config"
	case IO:
		return "io"
	case Corruption:
		return "corruption"
	case Build:
		return "build"
	case Coder:
		return "coder"
	default:
		return "unknown"
	}
}

// Error is the uniform error type returned by every exported pipeline API.
//
// It carries a [Kind] plus structured context (which artifact and pipeline stage were
// involved) appended to the message, e.g.:
//
//	decode factor block: short read (artifact=factorizor-2048-first-dhash=ab12 stage=C6 block=41)
//
// Use [errors.Is] against the [ConfigErr], [IOErr], [CorruptionErr], [BuildErr],
// [CoderErr] sentinels (via [Is]) and [errors.As] to recover the structured fields.
type Error struct {
	Kind     Kind
	Stage    string // e.g. "C3", "C5", "C6"
	Artifact string // artifact file name, when relevant
	Block    int    // factorization/dictionary block index, when relevant; -1 if unset
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}

	suffix := e.suffix()
	if suffix == "" {
		return cause
	}

	if cause == "" {
		return suffix
	}

	return cause + " " + suffix
}

// Unwrap returns the underlying cause for [errors.Is]/[errors.As].
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

func (e *Error) suffix() string {
	var parts []string

	if e.Artifact != "" {
		parts = append(parts, "artifact="+e.Artifact)
	}

	if e.Stage != "" {
		parts = append(parts, "stage="+e.Stage)
	}

	if e.Block >= 0 {
		parts = append(parts, fmt.Sprintf("block=%d", e.Block))
	}

	if len(parts) == 0 {
		return ""
	}

	out := "("
	for i, p := range parts {
		if i > 0 {
			out += " "
		}

		out += p
	}

	return out + ")"
}

// kindSentinel lets errors.Is(err, rlzerr.ConfigErr) etc. work without exposing Kind
// comparisons directly; each sentinel wraps no cause and exists only to be matched.
type kindSentinel Kind

func (k kindSentinel) Error() string { return Kind(k).String() }

// Sentinels usable with errors.Is: errors.Is(err, rlzerr.ConfigErr).
var (
	ConfigErr     error = kindSentinel(Config)
	IOErr         error = kindSentinel(IO)
	CorruptionErr error = kindSentinel(Corruption)
	BuildErr      error = kindSentinel(Build)
	CoderErr      error = kindSentinel(Coder)
)

// Is implements errors.Is support so *Error matches its own Kind sentinel.
func (e *Error) Is(target error) bool {
	sentinel, ok := target.(kindSentinel)
	if !ok {
		return false
	}

	return Kind(sentinel) == e.Kind
}

// Opt configures an [Error] during construction via [New] or [Wrap].
type Opt func(*Error)

// WithStage attaches the pipeline stage (component id) that produced the error.
func WithStage(stage string) Opt { return func(e *Error) { e.Stage = stage } }

// WithArtifact attaches the artifact name involved.
func WithArtifact(name string) Opt { return func(e *Error) { e.Artifact = name } }

// WithBlock attaches a factorization/dictionary block index.
func WithBlock(i int) Opt { return func(e *Error) { e.Block = i } }

// New creates a new [*Error] of the given kind wrapping a plain message.
func New(kind Kind, msg string, opts ...Opt) *Error {
	return Wrap(kind, errors.New(msg), opts...)
}

// Newf is like [New] but with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, a ...any) *Error {
	return Wrap(kind, fmt.Errorf(format, a...))
}

// Wrap attaches a [Kind] and optional context to an existing error.
//
// If err is nil, Wrap returns nil. If err is already a *Error, its context is
// inherited and overridable, and the kind is overridden to the one supplied here.
func Wrap(kind Kind, err error, opts ...Opt) *Error {
	if err == nil {
		return nil
	}

	e := &Error{Kind: kind, Err: err, Block: -1}

	var existing *Error
	if errors.As(err, &existing) {
		e.Stage = existing.Stage
		e.Artifact = existing.Artifact
		e.Block = existing.Block
		e.Err = existing.Err
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}
