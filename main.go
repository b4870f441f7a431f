package main

import "github.com/chordtracker/chordtracker/cmd"

func main() {
	cmd.Execute()
}
