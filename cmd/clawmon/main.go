package main

import (
	"flag"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/robotalks/roboclaw.go/pkg/cli/monitor"
	"github.com/robotalks/roboclaw.go/pkg/l1/comm/mqtt"
	env "github.com/robotalks/roboclaw.go/pkg/l1/env/connector"
)

var plain bool

func init() {
	env.SetupFlags()
	flag.BoolVar(&plain, "plain", plain, "Print events line by line instead of the table.")
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	q, err := mqtt.NewQueueFromURL(conf.RegistryURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()

	if plain {
		monitor.Subscribe(q, conf.Ref, func(msg monitor.TelemetryMsg) {
			fmt.Println(monitor.FormatEvent(msg.Ref, msg.Event))
		})
		select {}
	}

	p := tea.NewProgram(monitor.New())
	sub := monitor.Subscribe(q, conf.Ref, func(msg monitor.TelemetryMsg) { p.Send(msg) })
	defer sub.Close()
	if _, err := p.Run(); err != nil {
		log.Fatalln(err)
	}
}
