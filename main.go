package main

import "zenith/internal/cli"

func main() {
	cli.Execute()
}
