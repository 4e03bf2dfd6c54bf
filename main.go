package main

import "ghost/cmd"

func main() {
	cmd.Execute()
}
