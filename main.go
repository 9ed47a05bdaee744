package main

import "eps-prepro/cmd"

func main() {
	cmd.Execute()
}
