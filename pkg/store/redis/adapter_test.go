package redis

import (
	"testing"

	"github.com/nimburion/bookshelf/pkg/observability/logger"
)

func TestNewAdapter_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty url", Config{}},
		{"unparseable url", Config{URL: "http://not-redis"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAdapter(tt.cfg, logger.NewNop()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
