//go:build !windows

package autostart

import "errors"

func createShortcut(string, Entry) error {
	return errors.New("startup shortcuts supported on windows only")
}
