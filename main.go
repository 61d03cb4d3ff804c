package main

import "github.com/Yates-Labs/relook/cmd"

func main() {
	cmd.Execute()
}
