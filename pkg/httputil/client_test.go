package httputil

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

func TestClientSingleton(t *testing.T) {
	if Client(TierMedium) != Client(TierMedium) {
		t.Error("same tier should return the same client")
	}
	if Client(TierFast) == Client(TierSlow) {
		t.Error("different tiers should return different clients")
	}
}

func TestClientTimeouts(t *testing.T) {
	tests := []struct {
		tier TimeoutTier
		want time.Duration
	}{
		{TierFast, 5 * time.Second},
		{TierMedium, 30 * time.Second},
		{TierSlow, 60 * time.Second},
	}
	for _, tt := range tests {
		if c := Client(tt.tier); c.Timeout != tt.want {
			t.Errorf("tier %d timeout = %v, want %v", tt.tier, c.Timeout, tt.want)
		}
	}
}

func TestReadResponseBody(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		maxSize int64
		wantLen int
	}{
		{"normal read", "hello world", 1024, 11},
		{"truncated read", strings.Repeat("x", 1000), 100, 100},
		{"zero means default", "test", 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadResponseBody(strings.NewReader(tt.input), tt.maxSize)
			if err != nil {
				t.Fatalf("ReadResponseBody: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestReadErrorBodyCapped(t *testing.T) {
	large := strings.Repeat("error details ", 100000)
	got, err := ReadErrorBody(strings.NewReader(large))
	if err != nil {
		t.Fatalf("ReadErrorBody: %v", err)
	}
	if len(got) > 1024*1024 {
		t.Errorf("got %d bytes, want at most 1MB", len(got))
	}
}

type trackingReader struct {
	io.Reader
	fullyRead bool
}

func (r *trackingReader) Read(p []byte) (n int, err error) {
	n, err = r.Reader.Read(p)
	if err == io.EOF {
		r.fullyRead = true
	}
	return
}

func TestDrainAndClose(t *testing.T) {
	r := &trackingReader{Reader: bytes.NewReader([]byte("test data"))}
	DrainAndClose(io.NopCloser(r))
	if !r.fullyRead {
		t.Error("body was not fully drained")
	}
}

func TestDrainAndCloseNil(t *testing.T) {
	DrainAndClose(nil)
}
