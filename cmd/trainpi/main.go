package main

import "github.com/oshokin/trainpi/cmd/trainpi/cmd"

func main() {
	cmd.Execute()
}
