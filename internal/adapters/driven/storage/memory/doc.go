// Package memory provides in-memory implementations of driven port interfaces.
// The conversation store backs --ephemeral runs; the config store is for
// tests. Nothing survives the process.
package memory
