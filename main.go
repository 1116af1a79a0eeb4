package main

import "github.com/Mohsinsiddi/w3canvas/cmd"

func main() {
	cmd.Execute()
}
