/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/ersave/cmd/ersave/cmd"
)

func main() {
	cmd.Execute()
}
