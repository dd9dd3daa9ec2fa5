// Package dialog implements the menu-driven conversation state machine for
// the lending registry. The machine is a pure transition function: it takes
// the caller-owned session by value together with one normalized input and
// returns the next session plus the outgoing reply. All durable effects go
// through the injected registry.Repository.
package dialog
