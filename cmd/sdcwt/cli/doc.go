// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the sdcwt tool.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, and a
// Run function. Commands are assembled into a tree in cmd/sdcwt/main.go
// and dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and structured help output with examples.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3).
//
// Commands report failures as [ToolError] values. [CategoryOf] also
// classifies uncategorised errors, treating token decode failures as
// validation. A command that has already printed its verdict (a token
// that fails validation) returns an [ExitError]. [ExitCodeOf] turns
// either into the process exit code: 1 rejected or internal, 2 bad
// input, 3 missing file.
// [NewCommandLogger] builds the slog logger handed to every Run.
package cli
