// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	original := [...]string{Version, GitCommit, GitDirty, BuildTime}
	t.Cleanup(func() {
		Version, GitCommit, GitDirty, BuildTime = original[0], original[1], original[2], original[3]
	})

	Version, GitCommit, BuildTime = "1.2.3", "abc1234", "2026-02-10T00:00:00Z"

	GitDirty = "false"
	if got, want := Info(), "1.2.3 (abc1234, 2026-02-10T00:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}

	GitDirty = "true"
	if got, want := Info(), "1.2.3 (abc1234-dirty, 2026-02-10T00:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.HasPrefix(full, Info()) {
		t.Errorf("Full() = %q does not start with Info()", full)
	}
	if !strings.Contains(full, runtime.Version()) {
		t.Errorf("Full() = %q does not mention %s", full, runtime.Version())
	}
}
