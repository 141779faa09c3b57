package main

import "github.com/ngtlab/attendance-dashboard/cmd"

func main() {
	cmd.Execute()
}
