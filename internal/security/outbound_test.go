package security

import "testing"

func TestValidateURL(t *testing.T) {
	guard := NewOutboundGuard()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"public https URL", "https://api.example.com/v1/locate", false},
		{"public http URL", "http://feeds.example.gov.in/schemes.xml", false},
		{"empty URL", "", true},
		{"file scheme", "file:///etc/passwd", true},
		{"ftp scheme", "ftp://example.com/feed", true},
		{"localhost", "http://localhost:8080/", true},
		{"loopback IP", "http://127.0.0.1/", true},
		{"private IP 10.x", "http://10.0.0.5/feed", true},
		{"private IP 192.168.x", "http://192.168.1.1/", true},
		{"link-local metadata IP", "http://169.254.169.254/latest/meta-data/", true},
		{"missing host", "https:///path", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestSafeClient_ReturnsClientWithTimeout(t *testing.T) {
	guard := NewOutboundGuard()

	client := guard.SafeClient(0)
	if client == nil {
		t.Fatal("SafeClient() returned nil")
	}
}
