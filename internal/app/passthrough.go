package app

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// statusMsg carries the outcome of a background action to the status bar.
type statusMsg struct {
	text string
	err  error
}

// openExternalCmd opens url outside the sandbox, falling back to copying it.
func openExternalCmd(url string, openFn, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if openFn != nil {
			if err := openFn(url); err == nil {
				return statusMsg{text: "Opened in system browser"}
			}
		}
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return statusMsg{text: "Could not open browser, URL copied to clipboard"}
			}
		}
		return statusMsg{err: errors.New("could not open URL or copy it to the clipboard")}
	}
}

func copyURLCmd(url string, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if copyFn == nil {
			return statusMsg{err: errors.New("clipboard not available")}
		}
		if err := copyFn(url); err != nil {
			return statusMsg{err: fmt.Errorf("copy URL: %w", err)}
		}
		return statusMsg{text: "URL copied to clipboard"}
	}
}

// openInSystemBrowser hands url to the platform's default browser.
func openInSystemBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_, err := startDetached(cmd)
	return err
}

// startDetached starts cmd and reaps it in the background. The returned
// channel closes once the process has exited.
func startDetached(cmd *exec.Cmd) (<-chan struct{}, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = cmd.Wait()
	}()
	return done, nil
}

func copyToClipboard(url string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility found")
	}
	return clipboard.WriteAll(url)
}
