//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Renders the skybox in the simulated compositor for ten seconds.
func (Run) Simulator() error {
	fmt.Println("Run simulator...")
	if _, err := executeCmd("go", withArgs("run", ".", "run", "--config", "assets/skybox.toml", "--duration", "10s"), withStream()); err != nil {
		return err
	}
	return nil
}
