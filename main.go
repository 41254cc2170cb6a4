package main

import "magicwords/cmd"

func main() {
	cmd.Execute()
}
