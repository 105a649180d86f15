package main

import "github.com/campuslink/campuslink/cmd"

func main() {
	cmd.Execute()
}
