// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the sdcwt
// tool.
//
// Configuration is loaded from a single file specified by either the
// SDCWT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). When neither is given the tool runs on [Default].
// There is no ~/.config discovery and no automatic file search.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter:
// output is always in shortest form and salts always come from
// crypto/rand. [Config.Validate] rejects seeded salts in production.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${SDCWT_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Issuer, Output
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// The only sdcwt dependency is lib/binhash, which names the digest
// algorithms accepted for issuer.sd_alg.
package config
