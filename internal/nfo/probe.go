package nfo

import "os"

// Prober answers existence questions about the filesystem.
type Prober interface {
	DirExists(path string) bool
	FileExists(path string) bool
}

// OSProber probes the live filesystem. Case sensitivity follows the host.
type OSProber struct{}

// DirExists reports whether path is an existing directory.
func (OSProber) DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// FileExists reports whether path exists and is not a directory.
func (OSProber) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
