package browser

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/a1", false},
		{"http://example.com", false},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
		{"ftp://example.com", true},
		{"https://", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := Validate(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOpen_UsesSystemOpener(t *testing.T) {
	var gotName string
	var gotArgs []string
	l := NewLauncher("", nil, nil)
	l.start = func(name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}

	require.NoError(t, l.Open("https://example.com/a1"))

	wantName, wantArgs := systemOpener(runtime.GOOS)
	assert.Equal(t, wantName, gotName)
	assert.Equal(t, append(wantArgs, "https://example.com/a1"), gotArgs)
}

func TestOpen_RejectsSchemeBeforeLaunching(t *testing.T) {
	l := NewLauncher("", nil, nil)
	l.start = func(string, ...string) error {
		t.Fatal("launcher must not run for rejected URLs")
		return nil
	}

	assert.ErrorIs(t, l.Open("file:///etc/passwd"), ErrUnsupportedScheme)
}

func TestOpen_MissingConfiguredCommand(t *testing.T) {
	l := NewLauncher("definitely-not-a-browser-binary", nil, nil)

	assert.Error(t, l.Open("https://example.com"))
}

func TestSystemOpener(t *testing.T) {
	name, args := systemOpener("windows")
	assert.Equal(t, "rundll32", name)
	assert.Equal(t, []string{"url.dll,FileProtocolHandler"}, args)

	name, _ = systemOpener("darwin")
	assert.Equal(t, "open", name)

	name, _ = systemOpener("linux")
	assert.Equal(t, "xdg-open", name)
}
