package main

import "github.com/MrEthical07/portalAuth/cmd/portald/cmd"

func main() {
	cmd.Execute()
}
