package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/moodkit/config"
	"github.com/rushteam/moodkit/discovery"
)

func TestBuildDiscovery(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(a, []byte(yamlFixture), 0o600))
	require.NoError(t, os.WriteFile(b, []byte(`[{"place_id":"x"}]`), 0o600))

	cfg := config.Default()
	svc, err := buildDiscovery(cfg)
	require.NoError(t, err)
	assert.Nil(t, svc)

	cfg.Discovery.Fixtures = []string{a}
	svc, err = buildDiscovery(cfg)
	require.NoError(t, err)
	assert.IsType(t, &discovery.Static{}, svc)

	cfg.Places.APIKey = "key"
	cfg.Discovery.Fixtures = []string{a, b}
	svc, err = buildDiscovery(cfg)
	require.NoError(t, err)
	require.IsType(t, &discovery.Fanout{}, svc)
	f := svc.(*discovery.Fanout)
	require.Len(t, f.Sources, 3)
	assert.Equal(t, "places", f.Sources[0].Name)

	cfg.Discovery.Fixtures = []string{filepath.Join(dir, "missing.yaml")}
	_, err = buildDiscovery(cfg)
	assert.Error(t, err)
}
