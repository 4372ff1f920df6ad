package main

import "github.com/brocaar/chirpstack-uplink-decoder/cmd/chirpstack-uplink-decoder/cmd"

var version string // set by the compiler

func main() {
	cmd.Execute(version)
}
