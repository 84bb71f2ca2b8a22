package connector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/roboclaw.go/pkg/l1"
	"github.com/robotalks/roboclaw.go/pkg/l1/comm/mqtt"
)

type fakeConnector struct {
	infos []l1.ControllerInfo
	err   error
}

func (c *fakeConnector) Discover(context.Context) ([]l1.ControllerInfo, error) {
	return c.infos, c.err
}

func (c *fakeConnector) Connect(context.Context, l1.ControllerRef) (l1.ControllerConn, error) {
	return nil, errors.New("not connectable")
}

func TestResolve(t *testing.T) {
	a1 := l1.ControllerInfo{Ref: l1.ControllerRef{Type: "roboclaw", ID: "a1"}}
	b2 := l1.ControllerInfo{Ref: l1.ControllerRef{Type: "roboclaw", ID: "b2"}}
	other := l1.ControllerInfo{Ref: l1.ControllerRef{Type: "sim", ID: "s1"}}

	testCases := []struct {
		name  string
		ref   l1.ControllerRef
		infos []l1.ControllerInfo
		err   error
		want  l1.ControllerRef
		fail  string
	}{
		{name: "explicit", ref: a1.Ref, want: a1.Ref},
		{name: "single", ref: l1.ControllerRef{Type: "roboclaw"}, infos: []l1.ControllerInfo{other, b2}, want: b2.Ref},
		{name: "none", ref: l1.ControllerRef{Type: "roboclaw"}, infos: []l1.ControllerInfo{other}, fail: "no roboclaw controller found"},
		{name: "ambiguous", ref: l1.ControllerRef{Type: "roboclaw"}, infos: []l1.ControllerInfo{a1, b2}, fail: "2 roboclaw controllers found, robot id must be specified"},
		{name: "no type", fail: "robot type must be specified"},
		{name: "discover error", ref: l1.ControllerRef{Type: "roboclaw"}, err: errors.New("offline"), fail: "discover error: offline"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := &Config{Ref: tc.ref}
			ref, err := conf.resolve(context.Background(), &fakeConnector{infos: tc.infos, err: tc.err})
			if tc.fail != "" {
				require.EqualError(t, err, tc.fail)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, ref)
		})
	}
}

func TestNewConnector(t *testing.T) {
	conf := NewConfig()
	require.Equal(t, "roboclaw", conf.Ref.Type)

	conf.RegistryURL = "mqtt://localhost:1883/robo/"
	_, err := conf.NewConnector()
	require.NoError(t, err)

	conf.RegistryURL = "http://localhost/"
	_, err = conf.NewConnector()
	require.EqualError(t, err, `unknown registry URL scheme: "http"`)
}

func TestDiscoverTimeout(t *testing.T) {
	conf := &Config{RegistryURL: "mqtt://localhost:1883/robo/", Discover: 2 * time.Second}
	connector, err := conf.NewConnector()
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, connector.(*mqtt.Connector).DiscoverTimeout)
	require.Equal(t, 2*time.Second+discoverConnectTimeout, conf.DiscoverTimeout())

	conf.Discover = 0
	require.Equal(t, mqtt.DefaultDiscoverTimeout+discoverConnectTimeout, conf.DiscoverTimeout())
}
