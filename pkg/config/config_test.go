package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenEnvUnset(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 40, cfg.Algorithm.StudentsPerSubgroup)
	assert.Equal(t, 60, cfg.Algorithm.LabRoomCapacityCeiling)
	assert.Equal(t, 60, cfg.Algorithm.COAnts)
	assert.Equal(t, 0.5, cfg.Algorithm.CORho)
	assert.Equal(t, 30, cfg.Algorithm.BCEmployed)
	assert.Equal(t, 5, cfg.Algorithm.BCLimit)
	assert.Equal(t, 60, cfg.Algorithm.PSOParticles)
	assert.True(t, cfg.Algorithm.PSORepairResidue)
	assert.Equal(t, 5*time.Minute, cfg.Algorithm.GenerationTimeout)
	assert.Equal(t, "./exports", cfg.Export.OutputDir)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("CO_ANTS", "120")
	t.Setenv("PSO_REPAIR_RESIDUE", "false")
	t.Setenv("GENERATION_TIMEOUT", "90s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test, https://b.test ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.Algorithm.COAnts)
	assert.False(t, cfg.Algorithm.PSORepairResidue)
	assert.Equal(t, 90*time.Second, cfg.Algorithm.GenerationTimeout)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestParseDuration_FallsBackOnEmptyOrInvalid(t *testing.T) {
	assert.Equal(t, 5*time.Minute, parseDuration("", 5*time.Minute))
	assert.Equal(t, 5*time.Minute, parseDuration("not-a-duration", 5*time.Minute))
	assert.Equal(t, 2*time.Hour, parseDuration("2h", 5*time.Minute))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim("a, b"))
	assert.Equal(t, []string{"a"}, splitAndTrim("a,,  "))
}
