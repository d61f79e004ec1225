package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultRenderMode, cfg.Viewer.RenderMode)
	assert.Equal(t, DefaultSelectionMode, cfg.Viewer.SelectionMode)
	assert.Equal(t, DefaultAtomRadiusScale, cfg.Viewer.AtomRadiusScale)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultSessionTTL, cfg.Server.SessionTTL)
	assert.Equal(t, int64(DefaultSourceMaxBytes), cfg.Source.MaxBytes)
	assert.Equal(t, []string{"stderr"}, cfg.Log.OutputPaths)
	assert.False(t, cfg.Viewer.AutoCenter)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Viewer.SelectionMode = "torsion"
	cfg.Source.HTTPTimeout = time.Second
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "torsion", cfg.Viewer.SelectionMode)
	assert.Equal(t, time.Second, cfg.Source.HTTPTimeout)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.True(t, cfg.Viewer.EstimateBondOrders)
	assert.True(t, cfg.Viewer.AutoCenter)
	assert.True(t, cfg.Viewer.Selectable)
	assert.True(t, cfg.Metrics.Enabled)
	assert.NoError(t, cfg.Validate())
}

//Personal.AI order the ending
