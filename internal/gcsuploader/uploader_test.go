package gcsuploader

import (
	"strings"
	"testing"
	"time"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"valid", "gs://bucket/uploads/a.pdf", "bucket", "uploads/a.pdf", false},
		{"missing scheme", "bucket/a.pdf", "", "", true},
		{"no object", "gs://bucket", "", "", true},
		{"empty object", "gs://bucket/", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, object, err := ParseURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("ParseURI(%q) = %q, %q; want %q, %q", tt.uri, bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	name := ObjectName(now, `C:\Users\me\march.pdf`)
	if !strings.HasPrefix(name, "uploads/2024/03/15/") {
		t.Errorf("ObjectName prefix = %q", name)
	}
	if !strings.HasSuffix(name, "-march.pdf") {
		t.Errorf("ObjectName suffix = %q", name)
	}
	if ObjectName(now, "march.pdf") == ObjectName(now, "march.pdf") {
		t.Error("ObjectName should be unique per call")
	}
}
