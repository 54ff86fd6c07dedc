package main

import "github.com/stadtimpuls/kompass/cmd"

func main() {
	cmd.Execute()
}
