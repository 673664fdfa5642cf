package main

import "github.com/papapumpkin/sextant/cmd"

func main() {
	cmd.Execute()
}
