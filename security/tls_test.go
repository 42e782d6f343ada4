package security

import (
	"crypto/tls"
	"testing"

	"github.com/kbukum/networkable/security/tlstest"
)

func TestTLSConfig_Build_Disabled(t *testing.T) {
	var nilCfg *TLSConfig
	for _, cfg := range []*TLSConfig{nilCfg, {}} {
		result, err := cfg.Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != nil {
			t.Fatal("expected nil tls.Config")
		}
	}
}

func TestTLSConfig_Build_SkipVerify(t *testing.T) {
	cfg := &TLSConfig{SkipVerify: true, ServerName: "example.com"}
	result, err := cfg.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.InsecureSkipVerify {
		t.Error("expected InsecureSkipVerify=true")
	}
	if result.ServerName != "example.com" {
		t.Errorf("expected ServerName=example.com, got %s", result.ServerName)
	}
	if result.MinVersion != tls.VersionTLS12 {
		t.Errorf("expected MinVersion=TLS12, got %d", result.MinVersion)
	}
}

func TestTLSConfig_Build_MinVersion(t *testing.T) {
	tests := []struct {
		in   string
		want uint16
	}{
		{"1.2", tls.VersionTLS12},
		{"1.3", tls.VersionTLS13},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			result, err := (&TLSConfig{MinVersion: tt.in}).Build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.MinVersion != tt.want {
				t.Errorf("expected %d, got %d", tt.want, result.MinVersion)
			}
		})
	}

	if _, err := (&TLSConfig{MinVersion: "2.0"}).Build(); err == nil {
		t.Error("expected error for unknown version")
	}
}

func TestTLSConfig_Build_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *TLSConfig
	}{
		{"missing CA file", &TLSConfig{CAFile: "/nonexistent/ca.pem"}},
		{"missing cert files", &TLSConfig{CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}},
		{"invalid CA content", &TLSConfig{CAFile: tlstest.WriteInvalidPEM(t, "bad-ca.pem")}},
		{"cert without key", &TLSConfig{CertFile: "cert.pem"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Build(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTLSConfig_Validate(t *testing.T) {
	var nilCfg *TLSConfig
	if err := nilCfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (&TLSConfig{CertFile: "c", KeyFile: "k"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (&TLSConfig{KeyFile: "k"}).Validate(); err == nil {
		t.Error("expected error when KeyFile set without CertFile")
	}
}

func TestTLSConfig_IsEnabled(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TLSConfig
		enabled bool
	}{
		{"nil", nil, false},
		{"zero", &TLSConfig{}, false},
		{"skip_verify", &TLSConfig{SkipVerify: true}, true},
		{"ca_file", &TLSConfig{CAFile: "ca.pem"}, true},
		{"cert_file", &TLSConfig{CertFile: "cert.pem"}, true},
		{"server_name", &TLSConfig{ServerName: "example.com"}, true},
		{"min_version", &TLSConfig{MinVersion: "1.3"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.IsEnabled(); got != tt.enabled {
				t.Errorf("IsEnabled() = %v, want %v", got, tt.enabled)
			}
		})
	}
}

func TestTLSConfig_Build_Generated(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	cfg := &TLSConfig{
		CAFile:     certs.CAFile,
		CertFile:   certs.CertFile,
		KeyFile:    certs.KeyFile,
		ServerName: "localhost",
	}
	result, err := cfg.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RootCAs == nil {
		t.Error("expected RootCAs to be set")
	}
	if len(result.Certificates) != 1 {
		t.Errorf("expected 1 client certificate, got %d", len(result.Certificates))
	}
	if len(certs.ServerConfig().Certificates) != 1 {
		t.Error("expected server config with leaf certificate")
	}
}
