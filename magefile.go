//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary  = "cliprecall"
	mainPkg = "./cmd/cliprecall"
)

// Default target to run when none is specified
var Default = Build

// Build builds the cliprecall binary
func Build() error {
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, mainPkg)
}

// Test runs all tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Race runs all tests with the race detector
func Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install installs cliprecall into GOPATH/bin
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", mainPkg)
}

// Clean removes the built binary
func Clean() error {
	fmt.Println("Cleaning")
	if err := os.Remove(binary); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
