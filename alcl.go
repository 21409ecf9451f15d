package main

import "github.com/serverlessresearch/alcl/cmd"

func main() {
	cmd.Execute()
}
