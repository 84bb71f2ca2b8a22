package controller

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEnv(t *testing.T) {
	conf := NewConfig()
	require.Equal(t, "roboclaw", conf.Info.Ref.Type)
	require.NotEmpty(t, conf.Info.Ref.ID)

	conf.MQTTBrokerURL = ""
	conf.WebsocketAddr = ""
	conf.TCPAddr = ""
	_, err := conf.NewEnv()
	require.EqualError(t, err, "at least one registrar is required")

	conf.WebsocketAddr = "127.0.0.1:0"
	env, err := conf.NewEnv()
	require.NoError(t, err)
	require.NotNil(t, env.Websocket)
	require.Len(t, env.Registrar.Registrars, 1)

	conf.MQTTBrokerURL = "mqtt://localhost:1883/robo/"
	conf.TCPAddr = "127.0.0.1:7070"
	env, err = conf.NewEnv()
	require.NoError(t, err)
	require.Len(t, env.Registrar.Registrars, 3)
	require.Equal(t, []string{
		"mqtt://localhost:1883/robo/",
		"ws://127.0.0.1:0/ws",
		"tcp://127.0.0.1:7070",
	}, env.RegistryURLs)

	conf.Info.Ref.ID = ""
	_, err = conf.NewEnv()
	require.Error(t, err)
}
