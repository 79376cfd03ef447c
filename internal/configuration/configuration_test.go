package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaultsWithoutFile(t *testing.T) {
	svc, err := Init(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	cfg := svc.GetConfiguration()
	assert.Equal(t, uint8(90), cfg.RadioConfiguration.Channel)
	assert.Equal(t, uint64(0x9090909000), cfg.RadioConfiguration.BasePipe)
	assert.Equal(t, uint64(0x90909090FF), cfg.RadioConfiguration.BroadcastPipe)
	assert.Equal(t, uint8(0), cfg.NetworkConfiguration.UnitNumber)
	assert.Equal(t, 10, cfg.NetworkConfiguration.MaxNetworkSize)
	assert.Equal(t, 300, cfg.NetworkConfiguration.ResetIntervalSec)
	assert.Equal(t, 60, cfg.NetworkConfiguration.JoinIntervalSec)
	assert.Equal(t, 5, cfg.NetworkConfiguration.JoinCooldownSec)
	assert.Equal(t, "lurker", cfg.MqttConfiguration.RootTopic)
}

func TestInitOverlaysFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
network:
  unitNumber: 4
  maxNetworkSize: 5
radio:
  portName: /dev/ttyUSB0
`)
	require.NoError(t, os.WriteFile(filename, content, 0644))

	svc, err := Init(filename)
	require.NoError(t, err)

	cfg := svc.GetConfiguration()
	assert.Equal(t, uint8(4), cfg.NetworkConfiguration.UnitNumber)
	assert.Equal(t, 5, cfg.NetworkConfiguration.MaxNetworkSize)
	assert.Equal(t, "/dev/ttyUSB0", cfg.RadioConfiguration.PortName)
	// Untouched keys keep their defaults.
	assert.Equal(t, uint8(90), cfg.RadioConfiguration.Channel)
	assert.Equal(t, 300, cfg.NetworkConfiguration.ResetIntervalSec)
}

func TestInitRejectsMalformedFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(filename, []byte("{not yaml"), 0644))

	_, err := Init(filename)
	assert.Error(t, err)
}

func TestUpdatePersists(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.yaml")

	svc, err := Init(filename)
	require.NoError(t, err)

	cfg := svc.GetConfiguration()
	cfg.NetworkConfiguration.ScanIntervalSec = 42
	require.NoError(t, svc.Update(cfg))

	reloaded, err := Init(filename)
	require.NoError(t, err)
	assert.Equal(t, 42, reloaded.GetConfiguration().NetworkConfiguration.ScanIntervalSec)
}
