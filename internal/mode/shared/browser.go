package shared

import (
	"os/exec"
	"runtime"
)

// Browser opens URLs in the user's default browser.
type Browser interface {
	Open(url string) error
}

// SystemBrowser implements Browser via the platform opener.
type SystemBrowser struct{}

// Open launches the default browser for url.
func (SystemBrowser) Open(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// MockBrowser records opened URLs for testing.
type MockBrowser struct {
	Opened []string
}

// Open records the URL and always succeeds.
func (m *MockBrowser) Open(url string) error {
	m.Opened = append(m.Opened, url)
	return nil
}
