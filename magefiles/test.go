//go:build mage

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Fails when a Go file is not gofmt clean.
func (Test) Fmt() error {
	out, err := executeCmd("gofmt", withArgs("-l", "engine", "magefiles", "main.go"))
	if err != nil {
		return err
	}
	if files := strings.TrimSpace(out); files != "" {
		return fmt.Errorf("files need gofmt:\n%s", files)
	}
	return nil
}

// Checks formatting, then runs every package test with the race detector.
func (Test) All() error {
	mg.Deps(Test.Fmt)
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}
