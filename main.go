package main

import "github.com/lepinkainen/bookworm/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
