// Package config defines the format-agnostic pipeline model along with the
// interfaces (Loader, Converter) used to read pipelines from disk and to bind
// runner arguments to Go structs.
//
// The Model is the single source of truth for the builder package, which
// turns it into a tree of loaders. Concrete implementations of the
// interfaces, such as for HCL, live in separate packages.
package config
