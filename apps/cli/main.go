package main

import (
	"log"
	"os"
)

// build is set by the linker at release time.
var build = "dev"

func main() {
	defer os.Exit(0)

	std := log.New(os.Stdout, "SHULE : ", log.LstdFlags|log.Lmicroseconds)

	cli, err := newCommandLine(std)
	if err != nil {
		std.Fatal(err)
	}
	if err := cli.root.Execute(); err != nil {
		os.Exit(1)
	}
}
