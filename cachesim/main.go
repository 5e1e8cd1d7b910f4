// Command cachesim replays address traces against a configurable
// set-associative cache model.
package main

import "github.com/sarchlab/cachesim/cachesim/cmd"

func main() {
	cmd.Execute()
}
