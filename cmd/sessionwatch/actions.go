// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// terminalActions renders the forced logout on a terminal.
type terminalActions struct {
	server    string
	tokenFile string
	stdout    io.Writer
	stderr    io.Writer
}

func (actions *terminalActions) ShowOverlay(_ context.Context) {
	fmt.Fprintln(actions.stderr, "Your session has expired. Signing you out...")
}

// SignOut forgets the local credential. A token file that is already gone counts as signed out.
func (actions *terminalActions) SignOut(_ context.Context) error {
	if err := os.Remove(actions.tokenFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

func (actions *terminalActions) Navigate(_ context.Context, path string) {
	fmt.Fprintln(actions.stdout, strings.TrimRight(actions.server, "/")+path)
}
