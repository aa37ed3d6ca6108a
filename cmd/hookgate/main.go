package main

import "github.com/mahmoodhamdi/hookgate/internal/cli"

func main() {
	cli.Execute()
}
