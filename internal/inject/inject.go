// Package inject delivers dictated text to the focused application, either
// by simulated keystrokes or through the clipboard, using robotgo.
package inject

import (
	"fmt"
	"runtime"

	"github.com/go-vgo/robotgo"
)

// Methods.
const (
	MethodNone  = "none"
	MethodType  = "type"
	MethodPaste = "paste"
)

// TextInjector sends text somewhere.
type TextInjector interface {
	Inject(text string) error
}

// New returns the injector for method. "none" (or "") returns a no-op.
func New(method string) (TextInjector, error) {
	switch method {
	case MethodNone, "":
		return nop{}, nil
	case MethodType, MethodPaste:
		return &Injector{method: method}, nil
	default:
		return nil, fmt.Errorf("inject: unknown method %q (supported: none, type, paste)", method)
	}
}

type nop struct{}

func (nop) Inject(string) error { return nil }

// Injector types or pastes text into the active application.
type Injector struct {
	method string
}

var _ TextInjector = (*Injector)(nil)

// Inject sends text to the active application using the configured method.
func (inj *Injector) Inject(text string) error {
	if text == "" {
		return nil
	}

	if inj.method == MethodPaste {
		return inj.paste(text)
	}
	robotgo.Type(text)
	return nil
}

// paste copies text to the clipboard and sends the platform paste shortcut.
// The previous clipboard contents are restored afterwards.
func (inj *Injector) paste(text string) error {
	prev, _ := robotgo.ReadAll()

	if err := robotgo.WriteAll(text); err != nil {
		return fmt.Errorf("inject: write to clipboard: %w", err)
	}

	if err := robotgo.KeyTap("v", pasteModifier()); err != nil {
		return fmt.Errorf("inject: key tap paste: %w", err)
	}

	_ = robotgo.WriteAll(prev)
	return nil
}

func pasteModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}
