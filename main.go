package main

import "github.com/iksnae/xerochat/cmd"

func main() {
	cmd.Execute()
}
