// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: load the pipeline, build
// the loader tree, attach reporters, serve status and wait for the result.
// It is decoupled from any specific entrypoint like a CLI.
package app
