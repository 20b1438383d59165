package main

import "chatrag/internal/cli"

func main() {
	cli.Execute()
}
