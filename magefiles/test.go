//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every package test, then again with the debug tag.
func (Test) All() error {
	if _, err := executeCmd("go", withArgs("test", "./..."), withEnv("CGO_ENABLED=1"), withStream()); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("test", "-tags", "debug", "./engine/..."), withEnv("CGO_ENABLED=1"), withStream())
	return err
}
