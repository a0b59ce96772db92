// Package errors provides the structured error handling used across the
// worldsim kernel.
//
// It provides:
//   - Structured errors with codes, messages, and metadata
//   - Error context preservation through wrapping
//   - Validation error helpers for config and input checking
//   - Type-safe error checking
//
// # Basic Usage
//
// Creating errors:
//
//	err := errors.NotFound("room not found")
//	err := errors.InvalidArgumentf("invalid withdraw amount: %d", amount)
//
// Adding metadata:
//
//	err := errors.NotFound("player not found").
//	    WithMeta("player_id", playerID).
//	    WithMeta("room_id", roomID)
//
// Wrapping errors:
//
//	if err := repo.Load(ctx); err != nil {
//	    return errors.Wrap(err, "failed to load snapshot")
//	}
//
// Changing error semantics:
//
//	if err := client.Get(ctx, key).Err(); err != nil {
//	    if err == redis.Nil {
//	        return errors.WrapWithCode(err, errors.CodeNotFound, "no snapshot stored")
//	    }
//	    return errors.Wrap(err, "redis error")
//	}
//
// # Error Checking
//
// Type checking:
//
//	if errors.IsNotFound(err) {
//	    // Fall back to the seed world
//	}
//
// Extracting information:
//
//	code := errors.GetCode(err)
//	message := errors.GetMessage(err)
//	meta := errors.GetMeta(err)
//
// # Validation Errors
//
// Using the validation builder:
//
//	vb := errors.NewValidationBuilder()
//	errors.ValidateRequired("SpawnRoomID", cfg.SpawnRoomID, vb)
//	errors.ValidateRange("WorkerPoolSize", cfg.WorkerPoolSize, 1, 64, vb)
//	if err := vb.Build(); err != nil {
//	    return err
//	}
//
// # Layer-Specific Guidelines
//
// Repository layer:
//   - Return domain-specific errors (NotFound, DataLoss)
//   - Include relevant IDs in metadata
//   - Wrap redis/file errors with context
//
// Engine/Orchestrator layer:
//   - Validate inputs and return InvalidArgument errors
//   - Distinguish errors from rejected/denied action results: a rejected
//     action is a normal result carrying a reason, not an error
//   - Wrap repository and collaborator errors with business context
//
// Collaborator boundary (planning oracle):
//   - Map timeouts to DeadlineExceeded and transport failures to
//     Unavailable so the tick orchestrator can degrade the task to a no-op
//
// # Error Codes
//
// The following error codes are available:
//   - NotFound: Resource not found
//   - InvalidArgument: Invalid input provided
//   - AlreadyExists: Resource already exists
//   - FailedPrecondition: Operation requirements not met
//   - Internal: Internal error
//   - Unavailable: Collaborator or store temporarily unavailable
//   - DataLoss: Unrecoverable snapshot corruption
//   - Canceled: Operation canceled
//   - DeadlineExceeded: Operation timeout
package errors
