// Package builder turns a validated config.Model into a tree of loaders.
//
// Every `task` block becomes a *loader.Task whose delegate, on each run,
// evaluates the task's argument expressions against the run input, binds
// them to the runner's argument struct and calls the registered runner.
// Every `combo` block becomes a *loader.Combo over its children, and the
// pipeline itself becomes the root combo.
//
// Argument expressions may only reference the `input` and `env` variables.
// References to anything else are rejected while building, so that a typo
// surfaces before any task runs.
package builder
