//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

const (
	binaryName   = "anima-skybox"
	shaderSource = "assets/shaders/skybox.metal"
	shaderAIR    = "assets/shaders/skybox.air"
	shaderLib    = "assets/shaders/default.metallib"
)

// Downloads the modules and builds the binary into bin/.
func (Build) Binary() error {
	if _, err := executeCmd("go", withArgs("mod", "download")); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("build", "-o", "bin/"+binaryName, "."), withStream())
	return err
}

// Compiles the skybox shader into a metallib. Needs the Xcode toolchain.
func (Build) Shaders() error {
	return buildShaders()
}

func buildShaders() error {
	if _, err := executeCmd("xcrun", withArgs("-sdk", "xros", "metal", "-c", shaderSource, "-o", shaderAIR), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("xcrun", withArgs("-sdk", "xros", "metallib", shaderAIR, "-o", shaderLib), withStream()); err != nil {
		return err
	}
	return nil
}
