// Command kiwimcp resolves, verifies, and executes signed directive, tool,
// and knowledge artifacts.
package main

import "github.com/kiwimcp/kiwimcp/internal/cli"

func main() {
	cli.Execute()
}
