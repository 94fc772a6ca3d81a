//go:build windows

package autostart

import (
	"errors"
	"runtime"
	"strings"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

const windowStyleMinimized = 7

// createShortcut makes .lnk with WScript.Shell COM object
func createShortcut(path string, e Entry) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED|ole.COINIT_SPEED_OVER_MEMORY); err != nil {
		var oleErr *ole.OleError
		// S_FALSE, already initialized on this thread
		if !errors.As(err, &oleErr) || oleErr.Code() != 1 {
			return err
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("WScript.Shell")
	if err != nil {
		return err
	}
	defer unknown.Release()

	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return err
	}
	defer shell.Release()

	res, err := oleutil.CallMethod(shell, "CreateShortcut", path)
	if err != nil {
		return err
	}
	shortcut := res.ToIDispatch()
	defer shortcut.Release()

	props := map[string]any{
		"TargetPath":       e.Target,
		"Arguments":        strings.Join(quoteArgs(e.Args), " "),
		"WorkingDirectory": e.Dir,
		"Description":      e.Description,
		"WindowStyle":      windowStyleMinimized,
	}
	if e.Icon != "" {
		props["IconLocation"] = e.Icon
	}
	for k, v := range props {
		if _, err := oleutil.PutProperty(shortcut, k, v); err != nil {
			return err
		}
	}
	_, err = oleutil.CallMethod(shortcut, "Save")
	return err
}

func quoteArgs(args []string) []string {
	res := make([]string, 0, len(args))
	for _, a := range args {
		if strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		res = append(res, a)
	}
	return res
}
