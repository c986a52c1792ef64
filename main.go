package main

import "proxytune/cmd"

func main() {
	cmd.Execute()
}
