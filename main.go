package main

import "TopAnalyzer/pkg/commands"

func main() {
	commands.Execute()
}
