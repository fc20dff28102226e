package s3

import (
	"testing"

	"github.com/kbukum/spindle/storage"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"bucket only", Config{Bucket: "b"}, false},
		{"missing bucket", Config{}, true},
		{"half credentials", Config{Bucket: "b", AccessKey: "ak"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.ApplyDefaults()
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFromStorageConfig(t *testing.T) {
	c := FromStorageConfig(storage.Config{Bucket: "b", Region: "eu-west-1", Endpoint: "http://localhost:4566"})
	if c.Bucket != "b" || c.Region != "eu-west-1" || c.Endpoint != "http://localhost:4566" {
		t.Errorf("unexpected config %+v", c)
	}
}
