package main

import "github.com/fakeyudi/idlesnap/cmd"

func main() {
	cmd.Execute()
}
