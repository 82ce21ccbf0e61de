package main

import "colorctl/cmd"

func main() {
	cmd.Execute()
}
