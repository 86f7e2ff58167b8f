//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the demo with voxel.toml. VOXEL_BACKEND overrides the backend.
func (Run) Demo() error {
	mg.Deps(Build.Demo)
	args := []string{"-config", "voxel.toml"}
	if b := os.Getenv("VOXEL_BACKEND"); b != "" {
		args = append(args, "-backend", b)
	}
	fmt.Println("Run demo...")
	_, err := executeCmd("bin/voxel", withArgs(args...), withStream())
	return err
}
