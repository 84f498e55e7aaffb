package main

import "github.com/khanhnv2901/webaudit/cmd"

func main() {
	cmd.Execute()
}
