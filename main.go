package main

import "github.com/gatherly/apiserver/cmd"

func main() {
	cmd.Execute()
}
