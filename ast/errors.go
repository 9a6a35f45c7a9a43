package ast

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Every error produced by the tokenizer, parser,
// factories and optimizer wraps exactly one of these, so callers can
// classify failures with errors.Is.
var (
	// ErrSyntax marks malformed pattern source.
	ErrSyntax = errors.New("syntax error")
	// ErrReference marks unresolvable backreferences or subroutines.
	ErrReference = errors.New("reference error")
	// ErrFeature marks constructs that are valid Oniguruma but not
	// supported, or supported constructs in a forbidden position.
	ErrFeature = errors.New("feature error")
	// ErrInvariant marks ill-formed input to an AST constructor or a
	// mutation primitive. It indicates a bug in the caller.
	ErrInvariant = errors.New("invariant error")
	// ErrNonConverging marks an optimizer run that exceeded its pass
	// ceiling without reaching a fixed point.
	ErrNonConverging = errors.New("optimizer did not converge")
)

// Syntaxf returns a formatted error wrapping ErrSyntax.
func Syntaxf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
}

// Referencef returns a formatted error wrapping ErrReference.
func Referencef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrReference, fmt.Sprintf(format, args...))
}

// Featuref returns a formatted error wrapping ErrFeature.
func Featuref(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFeature, fmt.Sprintf(format, args...))
}

// Invariantf returns a formatted error wrapping ErrInvariant.
func Invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
