package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture redirects log output to a buffer and restores state on cleanup.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestVerboseToggle(t *testing.T) {
	capture(t)

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebugOnlyWhenVerbose(t *testing.T) {
	buf := capture(t)

	SetVerbose(false)
	Debug("expanded query into %d variants", 3)
	assert.Zero(t, buf.Len())

	SetVerbose(true)
	Debug("expanded query into %d variants", 3)
	assert.Equal(t, "[DEBUG] expanded query into 3 variants\n", buf.String())
}

func TestSectionHeader(t *testing.T) {
	buf := capture(t)
	SetVerbose(true)

	Section("Retrieval")

	assert.Equal(t, "\n=== Retrieval ===\n", buf.String())
}

func TestInfoAndWarnFormatting(t *testing.T) {
	buf := capture(t)
	SetVerbose(true)

	Info("ingested %d chunks", 12)
	Warn("keyword search failed: %s", "timeout")

	assert.Contains(t, buf.String(), "[INFO] ingested 12 chunks\n")
	assert.Contains(t, buf.String(), "[WARN] keyword search failed: timeout\n")
}

func TestErrorPrintsWithoutVerbose(t *testing.T) {
	buf := capture(t)
	SetVerbose(false)

	Error("synthesis failed: %s", "provider unreachable")

	assert.Equal(t, "[ERROR] synthesis failed: provider unreachable\n", buf.String())
}

func TestConcurrentAccess(t *testing.T) {
	capture(t)

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(n int) {
			SetVerbose(true)
			Debug("worker %d", n)
			IsVerbose()
			SetVerbose(false)
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
