// Command voicechat is the terminal client for the voice chat server.
package main

import "github.com/sarthi-ai/voicechat/internal/cli"

func main() {
	cli.Execute()
}
