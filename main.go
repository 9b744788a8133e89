package main

import "file-hasher/cmd"

func main() {
	cmd.Execute()
}
