// Package errors provides centralized error code definitions for the prexsyn
// synthesis engine. All error codes are grouped by domain.
package errors

import "net/http"

// ErrorCode represents a typed error code used throughout the prexsyn engine.
// Codes are partitioned by domain to avoid conflicts and simplify maintenance.
type ErrorCode int

// ─────────────────────────────────────────────────────────────────────────────
// General / cross-cutting error codes  (1xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeOK indicates no error.
	CodeOK ErrorCode = 0

	// CodeUnknown is a catch-all for errors that have not been categorised.
	CodeUnknown ErrorCode = 10000

	// CodeInvalidParam is returned when a caller-supplied parameter fails
	// validation (missing required fields, type mismatch, out-of-range values).
	CodeInvalidParam ErrorCode = 10001

	// CodeUnauthorized is returned when a request lacks valid credentials.
	CodeUnauthorized ErrorCode = 10002

	// CodeForbidden is returned when the caller is authenticated but not
	// permitted to perform the requested operation.
	CodeForbidden ErrorCode = 10003

	// CodeNotFound is returned when the requested resource does not exist.
	CodeNotFound ErrorCode = 10004

	// CodeConflict is returned when an operation violates a state invariant.
	CodeConflict ErrorCode = 10005

	// CodeRateLimit is returned when the caller has exceeded an allotted rate.
	CodeRateLimit ErrorCode = 10006

	// CodeInternal is returned for unexpected failures not attributable to the caller.
	CodeInternal ErrorCode = 10007

	// CodeNotImplemented is returned when a requested feature is not yet implemented.
	CodeNotImplemented ErrorCode = 10008
)

// ─────────────────────────────────────────────────────────────────────────────
// Chemistry domain error codes  (3xxxx) — C1/C2/C3
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeMoleculeError is returned when a SMILES fails to parse or sanitize.
	CodeMoleculeError ErrorCode = 30001

	// CodeReactionError is returned when reaction SMARTS parsing or matcher
	// initialization fails.
	CodeReactionError ErrorCode = 30002

	// CodeIndexOutOfRange is returned when a building-block or reaction index
	// is queried outside its collection's bounds.
	CodeIndexOutOfRange ErrorCode = 30003
)

// ─────────────────────────────────────────────────────────────────────────────
// Synthesis evaluator error codes  (4xxxx) — C4
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodePushReactionError is returned when Synthesis.PushReaction yields
	// no sanitized product, or when the stack holds too few reactants.
	CodePushReactionError ErrorCode = 40001
)

// ─────────────────────────────────────────────────────────────────────────────
// Chemical-space / generator error codes  (5xxxx) — C5/C6/C7
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeNoAvailableBuildingBlocks is returned when both the primary and
	// secondary candidate lists for a (reaction, slot) pair are empty.
	CodeNoAvailableBuildingBlocks ErrorCode = 50001

	// CodeNoAvailableReactions is returned when no reaction in the space
	// matches a given molecule's substructure at any slot.
	CodeNoAvailableReactions ErrorCode = 50002
)

// ─────────────────────────────────────────────────────────────────────────────
// Infrastructure error codes  (7xxxx)
// ─────────────────────────────────────────────────────────────────────────────
const (
	// CodeIOError is returned when cache load/save fails.
	CodeIOError ErrorCode = 70001

	// CodeCacheError is returned when a Redis operation fails.
	CodeCacheError ErrorCode = 70002

	// CodeSerializationError is returned when marshaling or unmarshaling a
	// wire payload (JSON envelope, pickle stream) fails.
	CodeSerializationError ErrorCode = 70003

	// CodeMessageQueueError is returned when a Kafka produce/consume operation fails.
	CodeMessageQueueError ErrorCode = 70004

	// CodeStorageError is returned when a MinIO object-storage operation fails.
	CodeStorageError ErrorCode = 70005

	// CodeDatabaseError is returned for run-ledger query/connection failures.
	CodeDatabaseError ErrorCode = 70006
)

// ─────────────────────────────────────────────────────────────────────────────
// String — human-readable name of the error code
// ─────────────────────────────────────────────────────────────────────────────

// String returns the human-readable name associated with an ErrorCode.
// It is safe to call on any value, including unknown codes.
func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeUnknown:
		return "UNKNOWN"
	case CodeInvalidParam:
		return "INVALID_PARAM"
	case CodeUnauthorized:
		return "UNAUTHORIZED"
	case CodeForbidden:
		return "FORBIDDEN"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeConflict:
		return "CONFLICT"
	case CodeRateLimit:
		return "RATE_LIMIT"
	case CodeInternal:
		return "INTERNAL_ERROR"
	case CodeNotImplemented:
		return "NOT_IMPLEMENTED"

	case CodeMoleculeError:
		return "MOLECULE_ERROR"
	case CodeReactionError:
		return "REACTION_ERROR"
	case CodeIndexOutOfRange:
		return "INDEX_OUT_OF_RANGE"

	case CodePushReactionError:
		return "PUSH_REACTION_ERROR"

	case CodeNoAvailableBuildingBlocks:
		return "NO_AVAILABLE_BUILDING_BLOCKS"
	case CodeNoAvailableReactions:
		return "NO_AVAILABLE_REACTIONS"

	case CodeIOError:
		return "IO_ERROR"
	case CodeCacheError:
		return "CACHE_ERROR"
	case CodeSerializationError:
		return "SERIALIZATION_ERROR"
	case CodeMessageQueueError:
		return "MESSAGE_QUEUE_ERROR"
	case CodeStorageError:
		return "STORAGE_ERROR"
	case CodeDatabaseError:
		return "DATABASE_ERROR"

	default:
		return "UNKNOWN_CODE"
	}
}

// HTTPStatus returns the most appropriate HTTP status code for the given
// ErrorCode.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeOK:
		return http.StatusOK

	case CodeInvalidParam, CodeMoleculeError, CodeReactionError, CodePushReactionError:
		return http.StatusBadRequest

	case CodeUnauthorized:
		return http.StatusUnauthorized

	case CodeForbidden:
		return http.StatusForbidden

	case CodeNotFound, CodeIndexOutOfRange:
		return http.StatusNotFound

	case CodeConflict:
		return http.StatusConflict

	case CodeRateLimit:
		return http.StatusTooManyRequests

	case CodeNotImplemented:
		return http.StatusNotImplemented

	case CodeNoAvailableBuildingBlocks, CodeNoAvailableReactions:
		return http.StatusUnprocessableEntity

	case CodeMessageQueueError, CodeStorageError, CodeCacheError, CodeDatabaseError:
		return http.StatusServiceUnavailable

	case CodeSerializationError:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
