//go:build !windows

package util

// IsRunFromGUI is only meaningful on Windows, where a double clicked binary
// gets a throwaway console.
func IsRunFromGUI() bool { return false }

func HideConsoleWindow() {}
