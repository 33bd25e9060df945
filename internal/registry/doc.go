// Package registry maps the runner names used in pipeline files to the Go
// code that implements them.
//
// Modules register their runners at startup. Before a pipeline is built, the
// registry validates it: every task must name a known runner, and its
// arguments must match the runner's argument struct, both by name and, for
// literal values, by type. Problems are reported together so a broken
// pipeline can be fixed in one pass.
package registry
