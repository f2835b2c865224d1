// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// MaxFileSize bounds what [ReadFromPath] will read from a file.
const MaxFileSize = 64 << 10

// ErrInsecurePermissions is returned for a secret file that group or
// other users can read or write.
var ErrInsecurePermissions = errors.New("secret: file is accessible to other users")

// stdin is swapped by tests.
var stdin io.Reader = os.Stdin

// ReadFromPath reads a passphrase from a file, or the first line of
// stdin if path is "-". Surrounding whitespace is trimmed. The file
// must not be accessible to group or other. The caller closes the
// returned Buffer.
func ReadFromPath(path string) (*Buffer, error) {
	if path == "-" {
		return readLine(stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if err := checkMode(path, info.Mode()); err != nil {
		return nil, err
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("secret: %s is %d bytes, limit is %d", path, info.Size(), MaxFileSize)
	}

	data := make([]byte, info.Size())
	if _, err := io.ReadFull(file, data); err != nil {
		Zero(data)
		return nil, fmt.Errorf("secret: reading %s: %w", path, err)
	}
	return fromUntrimmed(data)
}

func checkMode(path string, mode fs.FileMode) error {
	if !mode.IsRegular() {
		return fmt.Errorf("secret: %s is not a regular file", path)
	}
	if mode.Perm()&0o077 != 0 {
		return fmt.Errorf("%w: %s has mode %04o", ErrInsecurePermissions, path, mode.Perm())
	}
	return nil
}

func readLine(reader io.Reader) (*Buffer, error) {
	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("secret: reading stdin: %w", err)
		}
		return nil, errors.New("secret: stdin is empty")
	}
	return fromUntrimmed(scanner.Bytes())
}

// fromUntrimmed moves the trimmed content of data into a Buffer and
// zeros all of data.
func fromUntrimmed(data []byte) (*Buffer, error) {
	defer Zero(data)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("secret: passphrase is empty")
	}
	return NewFromBytes(trimmed)
}
