//go:build mage

// Package main provides build targets for the nocodb-mcp project using Mage.
//
// Usage:
//
//	mage build       Compile nocodb-mcp binary to bin/
//	mage test:all    Run all tests with the race detector
//	mage test:unit   Run tests, skipping ones that talk to a fake server
//	mage test:cover  Run all tests and write coverage to bin/coverage.out
//	mage lint        Run golangci-lint
//	mage clean       Remove build artifacts
//	mage install     Install nocodb-mcp to GOPATH/bin
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "nocodb-mcp"
	binaryDir  = "bin"
	cmdDir     = "./cmd/nocodb-mcp"
	versionVar = "github.com/andrewlwn77/nocodb-mcp/internal/cli.Version"
)

// ldflags stamps the version from VERSION, or from the nearest git tag.
func ldflags() string {
	version := os.Getenv("VERSION")
	if version == "" {
		if tag, err := sh.Output("git", "describe", "--tags", "--always", "--dirty"); err == nil {
			version = strings.TrimPrefix(tag, "v")
		}
	}
	if version == "" {
		return ""
	}
	return "-X " + versionVar + "=" + version
}

// Build compiles the nocodb-mcp binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
