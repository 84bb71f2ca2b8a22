package main

import (
	"github.com/robotalks/roboclaw.go/pkg/cli/sh"
	env "github.com/robotalks/roboclaw.go/pkg/l1/env/connector"

	_ "github.com/robotalks/roboclaw.go/pkg/cli/cmds/base"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
