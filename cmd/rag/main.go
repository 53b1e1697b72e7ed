package main

import "ragloc/internal/cli"

func main() {
	cli.Execute()
}
