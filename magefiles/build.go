//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified.
var Default = Build.Binary

const binDir = "bin"

type Build mg.Namespace

// Tidies modules and builds the hairball binary into bin/.
func (Build) Binary() error {
	if _, err := executeCmd("go", withArgs("mod", "tidy")); err != nil {
		return err
	}
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return err
	}
	_, err := executeCmd("go",
		withArgs("build", "-trimpath", "-o", filepath.Join(binDir, "hairball"), "."),
		withEnv("CGO_ENABLED", "0"),
		withStream())
	return err
}

// Removes build output.
func (Build) Clean() error {
	return os.RemoveAll(binDir)
}
