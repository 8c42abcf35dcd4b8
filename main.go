package main

import "github.com/mpapenbr/lapviewer/cmd"

func main() {
	cmd.Execute()
}
