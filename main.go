package main

import "github.com/naka-gawa/repo-ranking/cmd"

func main() {
	cmd.Execute()
}
