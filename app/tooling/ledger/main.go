// This program is a command line client for a ledger node.
package main

import "github.com/basicnode/ledger/app/tooling/ledger/cmd"

func main() {
	cmd.Execute()
}
