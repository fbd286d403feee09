package main

import "github.com/devicelab-dev/crashcheck/pkg/cli"

func main() {
	cli.Execute()
}
