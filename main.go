package main

import "github.com/ziadkadry99/docchat/cmd"

func main() {
	cmd.Execute()
}
