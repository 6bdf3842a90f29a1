package main

import "travel-agents/api_go/cmd"

func main() {
	cmd.Execute()
}
