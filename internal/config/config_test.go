package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "memory", cfg.DocumentStore)
	assert.Equal(t, "local", cfg.BlobStore)
	assert.Equal(t, "local", cfg.AuthProvider)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.UsesFirebase())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DOCUMENT_STORE", "mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("BLOB_STORE", "firebase")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("JWT_EXPIRATION", "2h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mongo", cfg.DocumentStore)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiration)
	assert.True(t, cfg.UsesFirebase())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown store":     {"DOCUMENT_STORE": "sqlite"},
		"mongo without uri": {"DOCUMENT_STORE": "mongo"},
		"minio without key": {"BLOB_STORE": "minio"},
		"unknown auth":      {"AUTH_PROVIDER": "ldap"},
		"default secret":    {"APP_ENV": "production"},
		"zero upload limit": {"MAX_UPLOAD_SIZE_MB": "0"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
