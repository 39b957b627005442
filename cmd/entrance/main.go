package main

import "github.com/tessro/entrance/internal/cli"

func main() {
	cli.Execute()
}
