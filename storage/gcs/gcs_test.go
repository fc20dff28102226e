package gcs

import (
	"testing"

	"github.com/kbukum/spindle/storage"
)

func TestFromStorageConfig(t *testing.T) {
	c := FromStorageConfig(storage.Config{Bucket: "spindle-data", CredentialsFile: "/etc/sa.json"})
	if c.GetBucket() != "spindle-data" || c.CredentialsFile != "/etc/sa.json" {
		t.Errorf("unexpected config %+v", c)
	}
	if err := (&Config{}).Validate(); err == nil {
		t.Error("expected error for missing bucket")
	}
}
