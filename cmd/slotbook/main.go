package main

import "github.com/example/slot-booker/cmd"

func main() {
	cmd.Execute()
}
