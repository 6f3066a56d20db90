// Package tui is the terminal interface of Kanvas: the case browser, the
// lock-conflict dialog, the row editor and the systems/users panels.
//
// Every model here only reads the case and asks the casefile layer to mutate
// it, so the read-only guard is enforced below the interface as well.
package tui
