package main

import "github.com/mik25/your-series/internal/cmd"

func main() {
	cmd.Execute()
}
