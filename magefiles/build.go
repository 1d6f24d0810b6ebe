//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for kennel using Mage.
//
// Usage:
//
//	mage build       Compile the kennel binary to bin/
//	mage test:all    Run every test
//	mage test:race   Run every test with the race detector
//	mage test:cover  Write coverage to bin/coverage.out
//	mage lint        Run golangci-lint
//	mage clean       Remove build and coverage output
//	mage install     Install kennel to GOBIN, or GOPATH/bin when unset
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "kennel"
	binaryDir  = "bin"
	cmdDir     = "./cmd/kennel"
)

var (
	binaryPath   = filepath.Join(binaryDir, binaryName)
	coverProfile = filepath.Join(binaryDir, "coverage.out")
)

// Build compiles the kennel binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-trimpath", "-o", binaryPath, cmdDir)
}

// Clean removes what build and test:cover write, then bin/ once it is
// empty, and drops cached test results.
func Clean() error {
	for _, path := range []string{binaryPath, coverProfile} {
		if err := sh.Rm(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	if entries, err := os.ReadDir(binaryDir); err == nil && len(entries) == 0 {
		if err := os.Remove(binaryDir); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean", "-testcache")
}

// Install builds and copies the binary to GOBIN, falling back to
// GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	dir, err := sh.Output(binGo, "env", "GOBIN")
	if err != nil {
		return err
	}
	if dir == "" {
		gopath, err := sh.Output(binGo, "env", "GOPATH")
		if err != nil {
			return err
		}
		dir = filepath.Join(gopath, "bin")
	}
	return sh.Copy(filepath.Join(dir, binaryName), binaryPath)
}
