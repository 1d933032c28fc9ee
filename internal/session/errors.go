package session

import "errors"

// #region parse-errors

// Parse and validation errors. They abort a step without touching working memory.
var (
	ErrSyntax             = errors.New("malformed statement")
	ErrMissingFunction    = errors.New("statement must include a function")
	ErrUnknownFunction    = errors.New("unrecognized function")
	ErrPureWithoutAlias   = errors.New("pure function result must be assigned to an alias")
	ErrUnknownArgument    = errors.New("unrecognized argument")
	ErrOutOfScopeArgument = errors.New("argument is no longer in scope")
	ErrArityMismatch      = errors.New("wrong number of arguments")
)

// #endregion parse-errors

// #region runtime-errors

var (
	// ErrUnresolvedSymbol is raised at apply time when an argument frame
	// cannot be found in working memory.
	ErrUnresolvedSymbol = errors.New("unrecognized symbol")
	// ErrNoApplicableFunctions means the registry is empty and nothing can
	// be perturbed. It indicates a misconfigured registry.
	ErrNoApplicableFunctions = errors.New("cannot perturb: registry contains no applicable functions")
)

// #endregion runtime-errors
