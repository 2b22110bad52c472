package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, AuthModeLocal, cfg.AuthMode)
	assert.Equal(t, SessionBackendPostgres, cfg.SessionBackend)
	assert.Equal(t, 10*time.Second, cfg.AuthTimeout)
	assert.Equal(t, 30*time.Minute, cfg.LoginScreenTTL)
	assert.False(t, cfg.IsEnvProd(), "prod requires a sentry dsn")
}

func TestNewConfig_RemoteRequiresURL(t *testing.T) {
	t.Setenv("AUTH_MODE", AuthModeRemote)

	_, err := NewConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_URL")
}

func TestNewConfig_UnknownSessionBackend(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "memcached")

	_, err := NewConfig()
	require.Error(t, err)
}

func TestConfig_Key(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantLen int
		wantErr bool
	}{
		{name: "aes-128", secret: "00112233445566778899aabbccddeeff", wantLen: 16},
		{name: "aes-256", secret: "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff", wantLen: 32},
		{name: "not hex", secret: "zz", wantErr: true},
		{name: "wrong size", secret: "0011", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{SecretKey: tt.secret}
			key, err := cfg.Key()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, tt.wantLen)
		})
	}
}
