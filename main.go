package main

import "github.com/ObiAU/equitynews/cmd"

func main() {
	cmd.Execute()
}
