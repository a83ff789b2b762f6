package main

import "renthunt-state/cmd"

func main() {
	cmd.Execute()
}
