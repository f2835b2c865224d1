// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger_JSONWhenNotTerminal(t *testing.T) {
	var output bytes.Buffer
	logger := newLogger(&output, false, false)
	logger.Info("issued token", "fingerprint", "tok-0123456789ab")

	var record map[string]any
	if err := json.Unmarshal(output.Bytes(), &record); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", output.String(), err)
	}
	if record["msg"] != "issued token" || record["fingerprint"] != "tok-0123456789ab" {
		t.Errorf("unexpected record %v", record)
	}
}

func TestNewLogger_TextOnTerminal(t *testing.T) {
	var output bytes.Buffer
	logger := newLogger(&output, true, false)
	logger.Info("issued token")

	if !strings.Contains(output.String(), `msg="issued token"`) {
		t.Errorf("expected text handler output, got %q", output.String())
	}
}

func TestNewLogger_Verbose(t *testing.T) {
	var quiet, verbose bytes.Buffer
	newLogger(&quiet, true, false).Debug("decoded token")
	newLogger(&verbose, true, true).Debug("decoded token")

	if quiet.Len() != 0 {
		t.Errorf("debug record logged without verbose: %q", quiet.String())
	}
	if !strings.Contains(verbose.String(), "decoded token") {
		t.Errorf("debug record missing with verbose: %q", verbose.String())
	}
}
