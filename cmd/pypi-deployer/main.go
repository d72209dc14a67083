package main

import "github.com/oshokin/pypi-deployer/cmd/pypi-deployer/cmd"

func main() {
	cmd.Execute()
}
