// fbas is a command-line utility for analyzing federated Byzantine agreement systems.
package main

import "github.com/relab/fbas/internal/cli"

func main() {
	cli.Execute()
}
