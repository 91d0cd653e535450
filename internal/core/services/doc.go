// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The index builder and the answer pipeline live here, together with
// the retriever they share and the settings resolution used by every
// command.
package services
