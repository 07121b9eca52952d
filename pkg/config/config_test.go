package config_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/audita-nfe/pkg/config"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 88, cfg.Audit.FuzzyThreshold)
	assert.Equal(t, 3.0, cfg.Audit.CentsFactor)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.False(t, cfg.DB.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("AUDIT_FUZZY_THRESHOLD", "92")
	v.Set("AUDIT_CENTS_FACTOR", "0")
	v.Set("STORAGE_BACKEND", "SQLite")
	v.Set("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 92, cfg.Audit.FuzzyThreshold)
	assert.Equal(t, 0.0, cfg.Audit.CentsFactor)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.True(t, cfg.DB.Enabled())
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DB.ConnectionString())
}

func TestFromViper_Invalid(t *testing.T) {
	v := viper.New()
	v.Set("AUDIT_FUZZY_THRESHOLD", 150)
	_, err := config.FromViper(v)
	require.Error(t, err)

	v = viper.New()
	v.Set("STORAGE_BACKEND", "minio")
	_, err = config.FromViper(v)
	require.Error(t, err)
}

func TestDBConfig_DSNEscapesPassword(t *testing.T) {
	c := config.DBConfig{Host: "h", Port: 5432, User: "u", Password: "p@ss/w", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss%2Fw@h:5432/d?sslmode=disable", c.DSN())
}
