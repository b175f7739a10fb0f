package main

import "github.com/tanq16/stagedl/cmd"

func main() {
	cmd.Execute()
}
