// Package state provides a per-user session store for Telegram bots.
// It is intentionally domain-agnostic so it can be reused across bots.
package state
