package main

import "go.sirus.dev/p2p-comm/chatrooms/cmd"

func main() {
	cmd.Execute()
}
