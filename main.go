package main

import "rebelinux-site/cmd"

func main() {
	cmd.Execute()
}
