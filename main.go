package main

import "roleboard/cmd"

func main() {
	cmd.Execute()
}
