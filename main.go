package main

import "github.com/user/convo/cmd"

func main() {
	cmd.Execute()
}
