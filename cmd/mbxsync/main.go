// Command mbxsync mirrors no-code inventory tables into a relational
// database.
package main

import "github.com/mt-climate-office/mbxsync/internal/cli"

func main() {
	cli.Execute()
}
