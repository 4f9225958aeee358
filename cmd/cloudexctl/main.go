// cloudexctl is the command-line client for a Cloudex server.
package main

import "github.com/mdmarufa/cloudex/internal/cli"

func main() {
	cli.Execute()
}
