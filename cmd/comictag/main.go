package main

import "github.com/Another0Noob/comictag/cmd"

func main() {
	cmd.Execute()
}
