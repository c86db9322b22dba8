// contractmock CLI - contract-validating stub server
package main

import "github.com/getmockd/contractmock/pkg/cli"

func main() {
	cli.Execute()
}
