package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// MachineID retrieves the unique ID identifying the machine.
// The application specific hash is used so the raw machine id is
// never published. Falls back to hostname.
func MachineID() string {
	id, err := machineid.ProtectedID("roboclaw")
	if err == nil {
		return id[:12]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown"
}
