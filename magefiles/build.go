//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the demo binary into bin/voxel.
func (Build) Demo() error {
	_, err := executeCmd("go", withArgs("build", "-o", "bin/voxel", "."), withEnv("CGO_ENABLED=1"), withStream())
	return err
}

// Builds the demo with the debug tag, so assertions and destroy failures panic.
func (Build) Debug() error {
	_, err := executeCmd("go", withArgs("build", "-tags", "debug", "-o", "bin/voxel-debug", "."), withEnv("CGO_ENABLED=1"), withStream())
	return err
}
