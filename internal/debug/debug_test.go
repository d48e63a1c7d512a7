package debug

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// saveAndRestoreState saves the debug package state and returns a cleanup function
func saveAndRestoreState() func() {
	originalDebug := EnableDebug
	originalOutput := debugOutput
	originalFile := debugFile
	return func() {
		EnableDebug = originalDebug
		debugOutput = originalOutput
		debugFile = originalFile
	}
}

func TestIsDebugEnabled(t *testing.T) {
	defer saveAndRestoreState()()
	t.Setenv("DEBUG", "")

	EnableDebug = "false"
	assert.False(t, IsDebugEnabled())

	EnableDebug = "true"
	assert.True(t, IsDebugEnabled())

	// Invalid build-flag value falls back to disabled.
	EnableDebug = "invalid"
	assert.False(t, IsDebugEnabled())

	t.Setenv("DEBUG", "1")
	assert.True(t, IsDebugEnabled())
}

func TestLog(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	Log("TEST", "Hello %s\n", "World")

	output := buf.String()
	assert.Contains(t, output, "[DEBUG:TEST]")
	assert.Contains(t, output, "Hello World")
}

func TestComponentLoggers(t *testing.T) {
	defer saveAndRestoreState()()

	EnableDebug = "true"

	tests := []struct {
		name    string
		logFunc func(string, ...interface{})
		prefix  string
	}{
		{"LogSearch", LogSearch, "[DEBUG:SEARCH]"},
		{"LogWalk", LogWalk, "[DEBUG:WALK]"},
		{"LogWatch", LogWatch, "[DEBUG:WATCH]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetDebugOutput(&buf)

			tt.logFunc("sample %s\n", "value")

			output := buf.String()
			assert.Contains(t, output, tt.prefix)
			assert.Contains(t, output, "sample value")
		})
	}
}

func TestDisabledProducesNoOutput(t *testing.T) {
	defer saveAndRestoreState()()
	t.Setenv("DEBUG", "")

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "false"

	Printf("quiet %s\n", "please")
	Println("quiet please")
	LogSearch("quiet %s\n", "please")

	assert.Empty(t, buf.String())
}

func TestNoOutputWithNilWriter(t *testing.T) {
	defer saveAndRestoreState()()

	SetDebugOutput(nil)
	EnableDebug = "true"

	// None of these may panic with no writer configured.
	Printf("test %s\n", "message")
	Println("test message")
	Log("TEST", "test %s\n", "message")
	LogSearch("test %s\n", "message")
	LogWalk("test %s\n", "message")
	LogWatch("test %s\n", "message")
}

type syncWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func TestConcurrentLogging(t *testing.T) {
	defer saveAndRestoreState()()

	SetDebugOutput(&syncWriter{})
	EnableDebug = "true"

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			Log("CONCURRENT", "message from goroutine %d\n", id)
			LogSearch("search from goroutine %d\n", id)
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestInitDebugLogFile(t *testing.T) {
	defer saveAndRestoreState()()

	logPath, err := InitDebugLogFile()
	require.NoError(t, err)
	require.NotEmpty(t, logPath)

	_, err = os.Stat(logPath)
	assert.NoError(t, err)

	EnableDebug = "true"
	Printf("test log message\n")

	require.NoError(t, CloseDebugLog())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "test log message")

	os.Remove(logPath)
}

func TestCloseDebugLog_NoFileIsNoop(t *testing.T) {
	defer saveAndRestoreState()()
	assert.NoError(t, CloseDebugLog())
}
