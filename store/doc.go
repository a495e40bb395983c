// Package store persists compiled route collection snapshots
// so a process can skip compilation on boot.
package store
