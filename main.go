package main

import "github.com/jmorenn/modelbridge/cmd"

func main() {
	cmd.Execute()
}
