// Command fleetplan optimizes a donation-pickup logistics network:
// depot selection followed by profit-maximizing daily truck routing.
package main

import "github.com/donorlogix/fleetplan/cmd/fleetplan/commands"

func main() {
	commands.Execute()
}
