package main

import (
	"flag"

	"github.com/robotalks/roboclaw.go/pkg/base"
	fx "github.com/robotalks/roboclaw.go/pkg/framework"
	"github.com/robotalks/roboclaw.go/pkg/l1"
	env "github.com/robotalks/roboclaw.go/pkg/l1/env/controller"
	"github.com/robotalks/roboclaw.go/pkg/manager"
	"github.com/robotalks/roboclaw.go/pkg/roboclaw"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetControllerMeta(l1.ControllerMeta{Description: "RoboClaw base"})
	env.SetupFlags()
	roboclaw.SetupFlags()
	manager.SetupFlags()
}

func main() {
	flag.Parse()

	env := env.NewConfig().MustNewEnv()
	mgr := manager.NewConfig().MustOpen(roboclaw.NewConfig())
	ctl := base.NewController(env.Registrar, mgr)

	fx.NewLoop().
		Add(env, ctl).
		RunOrFail()
}
