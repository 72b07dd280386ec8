// Command flowcanvas manages saved flows and serves a canvas editor to AI
// agents over MCP.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		bad.Fprintf(os.Stderr, "flowcanvas: %v\n", err)
		os.Exit(1)
	}
}
