// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"io"
	"os"

	"github.com/bureau-foundation/sdcwt/cmd/sdcwt/cli"
	"github.com/bureau-foundation/sdcwt/lib/config"
)

// stdout receives command output. Tests replace it.
var stdout io.Writer = os.Stdout

// Commands returns the token commands. cfg supplies flag defaults and
// the issuer settings.
func Commands(cfg *config.Config) []*cli.Command {
	return []*cli.Command{
		decodeCommand(),
		encodeCommand(cfg),
		diagCommand(),
		validateCommand(cfg),
		issueCommand(cfg),
		digestCommand(),
	}
}
