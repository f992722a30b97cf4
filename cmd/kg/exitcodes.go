package main

import (
	"context"
	"errors"

	"github.com/matsen/pdbkg/internal/config"
	"github.com/matsen/pdbkg/internal/neighborhood"
	"github.com/matsen/pdbkg/internal/node"
	"github.com/matsen/pdbkg/internal/source"
)

// Exit codes
const (
	ExitSuccess      = 0 // Success
	ExitError        = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError  = 2 // Configuration error (missing repository, invalid backend)
	ExitDataError    = 3 // Data error (malformed JSONL, validation failure)
	ExitNotFound     = 4 // Node not found in the graph
	ExitBackendError = 5 // Backend unreachable or failed (transport error)
)

// exitCodeFor classifies err into one of the exit codes above.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case source.IsNotFound(err):
		return ExitNotFound
	case source.IsTransport(err), errors.Is(err, context.DeadlineExceeded):
		return ExitBackendError
	case errors.Is(err, config.ErrNotRepository):
		return ExitConfigError
	case errors.Is(err, node.ErrEmptyID), errors.Is(err, node.ErrUnknownKind),
		errors.Is(err, neighborhood.ErrNoSeeds), source.IsRejected(err):
		return ExitDataError
	default:
		return ExitError
	}
}
