package main

import "github.com/kiesman99/gridcompose/cmd"

func main() {
	cmd.Execute()
}
