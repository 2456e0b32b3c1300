package main

import "github.com/emrgen/blog/cmd"

func main() {
	cmd.Execute()
}
