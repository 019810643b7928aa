//go:build darwin

package hotkey

/*
#cgo LDFLAGS: -framework Carbon
#include <Carbon/Carbon.h>

// Forward declaration for Go callback
extern void goHotkeyCallback(int id, int pressed);

// Event handler for hotkeys
static OSStatus hotkeyHandler(EventHandlerCallRef nextHandler, EventRef theEvent, void* userData) {
    EventHotKeyID hkRef;
    GetEventParameter(theEvent, kEventParamDirectObject, typeEventHotKeyID, NULL, sizeof(hkRef), NULL, &hkRef);

    UInt32 eventKind = GetEventKind(theEvent);
    int pressed = (eventKind == kEventHotKeyPressed) ? 1 : 0;

    goHotkeyCallback((int)hkRef.id, pressed);

    return noErr;
}

static int handlerInstalled = 0;

// Register hotkey with Carbon under the given id
static int registerHotkey(int id, UInt32 keyCode, UInt32 modifiers) {
    if (!handlerInstalled) {
        EventTypeSpec eventTypes[2];
        eventTypes[0].eventClass = kEventClassKeyboard;
        eventTypes[0].eventKind = kEventHotKeyPressed;
        eventTypes[1].eventClass = kEventClassKeyboard;
        eventTypes[1].eventKind = kEventHotKeyReleased;

        EventHandlerUPP handlerUPP = NewEventHandlerUPP(hotkeyHandler);
        InstallApplicationEventHandler(handlerUPP, 2, eventTypes, NULL, NULL);
        handlerInstalled = 1;
    }

    EventHotKeyRef hotKeyRef;
    EventHotKeyID hotKeyID;
    hotKeyID.signature = 'wclp';
    hotKeyID.id = id;

    OSStatus status = RegisterEventHotKey(keyCode, modifiers, hotKeyID, GetApplicationEventTarget(), 0, &hotKeyRef);

    return (status == noErr) ? 1 : 0;
}
*/
import "C"

import (
	"fmt"
	"sync"
)

// Carbon modifier masks.
const (
	carbonCmd   = 0x0100
	carbonShift = 0x0200
	carbonAlt   = 0x0800
	carbonCtrl  = 0x1000
)

// Carbon virtual key codes for keys the accelerator parser accepts.
var darwinKeyCodes = map[string]uint32{
	"space":  49,
	"c":      8,
	"f10":    109,
	"f11":    103,
	"f12":    111,
	"escape": 53,
}

type darwinManager struct {
	mu        sync.Mutex
	nextID    int
	callbacks map[int]func(bool) // hotkey id -> callback
	ids       map[string]int     // accel -> hotkey id
}

var (
	globalMu      sync.Mutex
	globalManager *darwinManager
)

// New creates a new macOS hotkey manager using Carbon
func New() (Manager, error) {
	mgr := &darwinManager{
		nextID:    1,
		callbacks: make(map[int]func(bool)),
		ids:       make(map[string]int),
	}
	globalMu.Lock()
	globalManager = mgr
	globalMu.Unlock()
	return mgr, nil
}

//export goHotkeyCallback
func goHotkeyCallback(id C.int, pressed C.int) {
	globalMu.Lock()
	mgr := globalManager
	globalMu.Unlock()
	if mgr == nil {
		return
	}

	mgr.mu.Lock()
	cb := mgr.callbacks[int(id)]
	mgr.mu.Unlock()
	if cb != nil {
		cb(pressed == 1)
	}
}

func (m *darwinManager) Register(accel string, callback func(pressed bool)) error {
	parsed, err := ParseAccel(accel)
	if err != nil {
		return err
	}

	keyCode, ok := darwinKeyCodes[parsed.Key]
	if !ok {
		return fmt.Errorf("unsupported key %q", parsed.Key)
	}

	var modifiers uint32
	if parsed.Mods&ModShift != 0 {
		modifiers |= carbonShift
	}
	if parsed.Mods&ModCtrl != 0 {
		modifiers |= carbonCtrl
	}
	if parsed.Mods&ModAlt != 0 {
		modifiers |= carbonAlt
	}
	if parsed.Mods&ModSuper != 0 {
		modifiers |= carbonCmd
	}

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.callbacks[id] = callback
	m.ids[accel] = id
	m.mu.Unlock()

	if C.registerHotkey(C.int(id), C.UInt32(keyCode), C.UInt32(modifiers)) == 0 {
		m.mu.Lock()
		delete(m.callbacks, id)
		delete(m.ids, accel)
		m.mu.Unlock()
		return fmt.Errorf("failed to register hotkey %q", accel)
	}

	return nil
}

func (m *darwinManager) Unregister(accel string) error {
	// TODO: UnregisterEventHotKey needs the EventHotKeyRef; keep it
	// when registration starts storing refs.
	m.mu.Lock()
	if id, ok := m.ids[accel]; ok {
		delete(m.callbacks, id)
		delete(m.ids, accel)
	}
	m.mu.Unlock()
	return nil
}

func (m *darwinManager) Close() error {
	globalMu.Lock()
	if globalManager == m {
		globalManager = nil
	}
	globalMu.Unlock()
	return nil
}
