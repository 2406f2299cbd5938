package main

import "github.com/mj1618/droid-cli/cmd"

func main() {
	cmd.Execute()
}
