package main

import "github.com/homeinfo/his/cmd/his/cmd"

func main() {
	cmd.Execute()
}
