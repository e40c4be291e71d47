package main

import "github.com/cmmoran/beandefgen/cmd"

var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
