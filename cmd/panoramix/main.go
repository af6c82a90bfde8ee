package main

import "github.com/gendx/panoramix/cmd/panoramix/cmd"

func main() {
	cmd.Execute()
}
