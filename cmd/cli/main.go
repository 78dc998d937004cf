// Package main is the entry point for the assignlens CLI binary.
package main

import (
	"os"

	_ "github.com/mattn/go-sqlite3"

	"assignlens/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
