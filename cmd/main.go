package main

import "gicowa/cli"

func main() {
	cli.Execute()
}
