//go:build linux

package hotkey

/*
#cgo pkg-config: x11 xtst
#include <X11/Xlib.h>
#include <X11/keysym.h>
#include <X11/extensions/XTest.h>
#include <stdlib.h>

Display* displayPtr = NULL;

int grabKey(int keycode, unsigned int modifiers) {
    if (displayPtr == NULL) {
        displayPtr = XOpenDisplay(NULL);
    }
    if (displayPtr == NULL) return 0;

    Window root = DefaultRootWindow(displayPtr);
    XGrabKey(displayPtr, keycode, modifiers, root, False, GrabModeAsync, GrabModeAsync);
    XSelectInput(displayPtr, root, KeyPressMask | KeyReleaseMask);
    XSync(displayPtr, False);

    return 1;
}

void ungrabKey(int keycode, unsigned int modifiers) {
    if (displayPtr == NULL) return;
    XUngrabKey(displayPtr, keycode, modifiers, DefaultRootWindow(displayPtr));
    XSync(displayPtr, False);
}

int keycodeForKeysym(unsigned long keysym) {
    if (displayPtr == NULL) {
        displayPtr = XOpenDisplay(NULL);
    }
    if (displayPtr == NULL) return 0;
    return XKeysymToKeycode(displayPtr, keysym);
}

int checkEvent(int* keycode, int* pressed) {
    if (displayPtr == NULL) return 0;

    XEvent event;
    if (XPending(displayPtr) > 0) {
        XNextEvent(displayPtr, &event);
        if (event.type == KeyPress || event.type == KeyRelease) {
            *keycode = event.xkey.keycode;
            *pressed = (event.type == KeyPress) ? 1 : 0;
            return 1;
        }
    }
    return 0;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"time"
)

// X11 modifier masks.
const (
	x11Shift = 1 << 0 // ShiftMask
	x11Ctrl  = 1 << 2 // ControlMask
	x11Alt   = 1 << 3 // Mod1Mask
	x11Super = 1 << 6 // Mod4Mask
)

// X11 keysyms for keys the accelerator parser accepts.
var linuxKeysyms = map[string]uint64{
	"space":  0x0020,
	"c":      0x0063,
	"f10":    0xffc7,
	"f11":    0xffc8,
	"f12":    0xffc9,
	"rctrl":  0xffe4,
	"ralt":   0xffea,
	"escape": 0xff1b,
}

type grab struct {
	keycode   int
	modifiers uint
	callback  func(bool)
}

type linuxManager struct {
	mu    sync.Mutex
	grabs map[string]grab // accel string -> grab
	byKey map[int]func(bool)
	stop  chan struct{}
}

// New creates a new Linux hotkey manager using X11
func New() (Manager, error) {
	mgr := &linuxManager{
		grabs: make(map[string]grab),
		byKey: make(map[int]func(bool)),
		stop:  make(chan struct{}),
	}

	go mgr.eventLoop()

	return mgr, nil
}

func (m *linuxManager) Register(accel string, callback func(pressed bool)) error {
	parsed, err := ParseAccel(accel)
	if err != nil {
		return err
	}

	keysym, ok := linuxKeysyms[parsed.Key]
	if !ok {
		return fmt.Errorf("unsupported key %q", parsed.Key)
	}
	keycode := int(C.keycodeForKeysym(C.ulong(keysym)))
	if keycode == 0 {
		return fmt.Errorf("no keycode for key %q", parsed.Key)
	}

	var modifiers uint
	if parsed.Mods&ModShift != 0 {
		modifiers |= x11Shift
	}
	if parsed.Mods&ModCtrl != 0 {
		modifiers |= x11Ctrl
	}
	if parsed.Mods&ModAlt != 0 {
		modifiers |= x11Alt
	}
	if parsed.Mods&ModSuper != 0 {
		modifiers |= x11Super
	}

	if C.grabKey(C.int(keycode), C.uint(modifiers)) == 0 {
		return fmt.Errorf("failed to grab key %q", accel)
	}

	m.mu.Lock()
	m.grabs[accel] = grab{keycode: keycode, modifiers: modifiers, callback: callback}
	m.byKey[keycode] = callback
	m.mu.Unlock()
	return nil
}

func (m *linuxManager) eventLoop() {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			var keycode, pressed C.int
			for C.checkEvent(&keycode, &pressed) != 0 {
				m.mu.Lock()
				cb := m.byKey[int(keycode)]
				m.mu.Unlock()
				if cb != nil {
					cb(pressed == 1)
				}
			}
		}
	}
}

func (m *linuxManager) Unregister(accel string) error {
	m.mu.Lock()
	g, ok := m.grabs[accel]
	if ok {
		delete(m.grabs, accel)
		delete(m.byKey, g.keycode)
	}
	m.mu.Unlock()

	if ok {
		C.ungrabKey(C.int(g.keycode), C.uint(g.modifiers))
	}
	return nil
}

func (m *linuxManager) Close() error {
	close(m.stop)
	return nil
}
