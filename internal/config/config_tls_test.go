package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// pemFiles creates placeholder cert, key and CA files; validation only checks they exist.
func pemFiles(t *testing.T) (cert, key, ca string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"cert.pem", "key.pem", "ca.pem"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("placeholder"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	return filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem"), filepath.Join(dir, "ca.pem")
}

func TestValidateTLSConfig(t *testing.T) {
	cert, key, ca := pemFiles(t)

	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr string
	}{
		{name: "empty mode is disabled", tls: TLSConfig{}},
		{name: "disabled ignores missing files", tls: TLSConfig{Mode: "disabled", CertFile: "/missing.pem"}},
		{name: "server", tls: TLSConfig{Mode: "server", CertFile: cert, KeyFile: key, MinVersion: "1.3"}},
		{
			name:    "server without key",
			tls:     TLSConfig{Mode: "server", CertFile: cert},
			wantErr: "certificate and key files are required for server mode",
		},
		{
			name:    "server with missing cert file",
			tls:     TLSConfig{Mode: "server", CertFile: filepath.Join(t.TempDir(), "gone.pem"), KeyFile: key},
			wantErr: "is not accessible",
		},
		{
			name: "mutual",
			tls:  TLSConfig{Mode: "mutual", CertFile: cert, KeyFile: key, CAFile: ca, ClientAuthPolicy: "verify"},
		},
		{
			name:    "mutual without CA",
			tls:     TLSConfig{Mode: "mutual", CertFile: cert, KeyFile: key},
			wantErr: "CA certificate file is required",
		},
		{
			name:    "mutual with unknown policy",
			tls:     TLSConfig{Mode: "mutual", CertFile: cert, KeyFile: key, CAFile: ca, ClientAuthPolicy: "sometimes"},
			wantErr: "invalid clientAuthPolicy: sometimes",
		},
		{
			name:    "unknown mode",
			tls:     TLSConfig{Mode: "tcp"},
			wantErr: "invalid TLS mode: tcp",
		},
		{
			name:    "old minimum version",
			tls:     TLSConfig{Mode: "server", CertFile: cert, KeyFile: key, MinVersion: "1.0"},
			wantErr: "invalid TLS minVersion: 1.0",
		},
		{
			name: "negative reload debounce",
			tls: TLSConfig{Mode: "server", CertFile: cert, KeyFile: key,
				AutoReload: AutoReloadConfig{Enabled: true, DebounceDelay: -time.Second}},
			wantErr: "debounceDelay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Server: ServerConfig{TLS: tt.tls}}
			err := cfg.ValidateTLSConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestTLSConfigEnabled(t *testing.T) {
	assert.False(t, TLSConfig{}.Enabled())
	assert.False(t, TLSConfig{Mode: "disabled"}.Enabled())
	assert.True(t, TLSConfig{Mode: "server"}.Enabled())
	assert.True(t, TLSConfig{Mode: "mutual"}.Enabled())
}
