/*
Package session implements the in-memory registry of live flows.

A Store maps flow ids to flows behind a single mutex. Every operation, from
inserting a flow to applying one update, holds that lock for its duration, so
updates to one flow are applied in arrival order. Completion removes the flow
under the lock and only then runs its handler, so a completed or completing
flow can never be looked up again.

The lock is coarse on purpose: flows advance at human pace, one form
submission at a time. Sharding by flow id is the path forward if update rates
ever grow.
*/
package session
