// Package domain defines the core data models and contracts shared across
// parley. It contains plain types (keys, identifiers, wire shapes), typed
// error values, and narrow interfaces only; no logic lives here.
package domain
