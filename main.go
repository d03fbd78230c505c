package main

import "github.com/crystaldolphin/mcpchat/cmd"

func main() {
	cmd.Execute()
}
