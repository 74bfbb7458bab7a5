package main

import "ollamacli/cmd"

func main() {
	cmd.Execute()
}
