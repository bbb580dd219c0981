package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewJSONLoggerTagsServiceAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, "gst-reconcile", "warn")

	logger.Info("session_transition", "phase", "uploading")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %s", buf.String())
	}

	logger.Warn("upload_rejected", "file", "a.csv")
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log record: %v", err)
	}
	if record["service"] != "gst-reconcile" || record["msg"] != "upload_rejected" || record["file"] != "a.csv" {
		t.Fatalf("unexpected record: %v", record)
	}
}
