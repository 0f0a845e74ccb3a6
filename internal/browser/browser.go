// Package browser opens article links outside the terminal.
package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"runtime"
)

// ErrUnsupportedScheme is returned for links that are not http or https
var ErrUnsupportedScheme = errors.New("only http and https links can be opened")

// Launcher opens URLs in the configured browser or the system default
type Launcher struct {
	command string   // configured browser command, empty for system default
	args    []string // additional arguments for the browser
	logger  *slog.Logger

	start func(name string, args ...string) error
}

// NewLauncher creates a Launcher. An empty command uses the platform opener.
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command: command,
		args:    args,
		logger:  logger,
		start:   startDetached,
	}
}

// Validate rejects anything that is not an absolute http or https URL
func Validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}
	return nil
}

// Open launches rawURL without waiting for the browser to exit
func (l *Launcher) Open(rawURL string) error {
	if err := Validate(rawURL); err != nil {
		return err
	}

	name, args := l.command, append([]string{}, l.args...)
	if name == "" {
		name, args = systemOpener(runtime.GOOS)
	} else if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("browser command %q not found: %w", name, err)
	}
	args = append(args, rawURL)

	l.logger.Info("opening article", "command", name, "url", rawURL)
	if err := l.start(name, args...); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// systemOpener returns the platform's default URL handler
func systemOpener(goos string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", nil
	case "windows":
		// rundll32 avoids cmd /c start interpreting the URL
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait() // reap
	return nil
}
