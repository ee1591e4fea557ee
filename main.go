package main

import "github.com/pgEdge/filemigrate/cmd"

func main() {
	cmd.Execute()
}
