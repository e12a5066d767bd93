package main

import "github.com/ThreeDotsLabs/relay/cmd/relay-replay/cmd"

func main() {
	cmd.Execute()
}
