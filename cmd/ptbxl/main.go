// Package main is the entry point for the ptbxl preprocessing CLI.
package main

import "os"

func main() {
	os.Exit(Execute())
}
