package main

import "imsizer/cmd"

func main() {
	cmd.Execute()
}
