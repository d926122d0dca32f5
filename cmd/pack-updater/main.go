package main

import "github.com/oshokin/pack-updater/cmd/pack-updater/cmd"

func main() {
	cmd.Execute()
}
