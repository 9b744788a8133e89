package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		useSSL   bool
		host     string
		secure   bool
	}{
		{"Bare Host", "localhost:9000", false, "localhost:9000", false},
		{"Bare Host With SSL", "minio.lan:9000", true, "minio.lan:9000", true},
		{"HTTP Scheme", "http://localhost:9000", false, "localhost:9000", false},
		{"HTTPS Scheme Forces TLS", "https://s3.amazonaws.com/", false, "s3.amazonaws.com", true},
		{"Whitespace", "  localhost:9000 ", false, "localhost:9000", false},
		{"Empty", "", false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, secure := splitEndpoint(tt.endpoint, tt.useSSL)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.secure, secure)
		})
	}
}

func TestConfigTimeout(t *testing.T) {
	assert.Equal(t, defaultTimeout, Config{}.Timeout())
	assert.Equal(t, defaultTimeout, Config{TimeoutSeconds: -1}.Timeout())
	assert.Equal(t, 5*time.Second, Config{TimeoutSeconds: 5}.Timeout())

	transport := newTransport(5 * time.Second)
	assert.Equal(t, 5*time.Second, transport.ResponseHeaderTimeout)
	assert.Equal(t, 5*time.Second, transport.TLSHandshakeTimeout)
}
