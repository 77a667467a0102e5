// Package flow implements the stateful unit of a configuration workflow.
//
// A Flow pairs the schema currently offered to a client with the state the
// client has submitted so far. Updates are gated by the current schema: a key
// that has not been offered is rejected with ErrInvalidField. When a
// SchemaRecomputer is attached the schema is recomputed after every accepted
// write, observing the value just written. Completing a flow hands its state
// to a Completer and consumes the flow.
//
// A Flow is not safe for concurrent use; the session store serialises access.
package flow
