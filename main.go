package main

import "github.com/npcgate/npcgate/cmd"

func main() {
	cmd.Execute()
}
