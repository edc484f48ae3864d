package main

import "github.com/notargets/tetmesh/cmd"

func main() {
	cmd.Execute()
}
