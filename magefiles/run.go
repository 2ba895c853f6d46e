//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Evaluates the ponytail example script with a fixed seed.
func (Run) Example() error {
	mg.Deps(Build.Binary)
	_, err := executeCmd("bin/hairball",
		withArgs("run", "-seed", "1", "-o", "ponytail.json", "examples/ponytail.hair"),
		withStream())
	return err
}

// Re-evaluates the ponytail example whenever it is saved.
func (Run) Watch() error {
	mg.Deps(Build.Binary)
	_, err := executeCmd("bin/hairball",
		withArgs("watch", "-o", "ponytail.json", "examples/ponytail.hair"),
		withDir("."),
		withStream())
	return err
}
