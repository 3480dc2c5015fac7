package main

import "github.com/fekuna/omnipos-attribute-service/cmd/catalogctl/commands"

func main() {
	commands.Execute()
}
