package main

import "github.com/aita/minidb/cmd"

func main() {
	cmd.Execute()
}
