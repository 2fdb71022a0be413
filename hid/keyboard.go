package hid

import (
	"errors"
	"fmt"
	"strings"
)

type HIDKey byte
type HIDMod byte

var ErrUnknownKey = errors.New("unknown key")

const (
	HID_KEY_NONE        HIDKey = 0x00
	HID_KEY_A           HIDKey = 0x04
	HID_KEY_Z           HIDKey = 0x1d
	HID_KEY_1           HIDKey = 0x1e
	HID_KEY_9           HIDKey = 0x26
	HID_KEY_0           HIDKey = 0x27
	HID_KEY_ENTER       HIDKey = 0x28
	HID_KEY_ESC         HIDKey = 0x29
	HID_KEY_BACKSPACE   HIDKey = 0x2a
	HID_KEY_TAB         HIDKey = 0x2b
	HID_KEY_SPACE       HIDKey = 0x2c
	HID_KEY_MINUS       HIDKey = 0x2d
	HID_KEY_EQUAL       HIDKey = 0x2e
	HID_KEY_LEFTBRACE   HIDKey = 0x2f
	HID_KEY_RIGHTBRACE  HIDKey = 0x30
	HID_KEY_BACKSLASH   HIDKey = 0x31
	HID_KEY_SEMICOLON   HIDKey = 0x33
	HID_KEY_APOSTROPHE  HIDKey = 0x34
	HID_KEY_GRAVE       HIDKey = 0x35
	HID_KEY_COMMA       HIDKey = 0x36
	HID_KEY_DOT         HIDKey = 0x37
	HID_KEY_SLASH       HIDKey = 0x38
	HID_KEY_CAPSLOCK    HIDKey = 0x39
	HID_KEY_F1          HIDKey = 0x3a
	HID_KEY_F12         HIDKey = 0x45
	HID_KEY_PRINTSCREEN HIDKey = 0x46
	HID_KEY_SCROLLLOCK  HIDKey = 0x47
	HID_KEY_HOME        HIDKey = 0x4a
	HID_KEY_DELETE      HIDKey = 0x4c
	HID_KEY_END         HIDKey = 0x4d
	HID_KEY_RIGHT       HIDKey = 0x4f
	HID_KEY_LEFT        HIDKey = 0x50
	HID_KEY_DOWN        HIDKey = 0x51
	HID_KEY_UP          HIDKey = 0x52
	HID_KEY_NUMLOCK     HIDKey = 0x53
)

const (
	HID_MOD_KEY_LEFT_CONTROL  HIDMod = 0x01
	HID_MOD_KEY_LEFT_SHIFT    HIDMod = 0x02
	HID_MOD_KEY_LEFT_ALT      HIDMod = 0x04
	HID_MOD_KEY_LEFT_GUI      HIDMod = 0x08
	HID_MOD_KEY_RIGHT_CONTROL HIDMod = 0x10
	HID_MOD_KEY_RIGHT_SHIFT   HIDMod = 0x20
	HID_MOD_KEY_RIGHT_ALT     HIDMod = 0x40
	HID_MOD_KEY_RIGHT_GUI     HIDMod = 0x80

	hidModShift = HID_MOD_KEY_LEFT_SHIFT | HID_MOD_KEY_RIGHT_SHIFT
)

var modNames = []struct {
	mod  HIDMod
	name string
}{
	{HID_MOD_KEY_LEFT_CONTROL, "MOD_LEFT_CONTROL"},
	{HID_MOD_KEY_LEFT_SHIFT, "MOD_LEFT_SHIFT"},
	{HID_MOD_KEY_LEFT_ALT, "MOD_LEFT_ALT"},
	{HID_MOD_KEY_LEFT_GUI, "MOD_LEFT_GUI"},
	{HID_MOD_KEY_RIGHT_CONTROL, "MOD_RIGHT_CONTROL"},
	{HID_MOD_KEY_RIGHT_SHIFT, "MOD_RIGHT_SHIFT"},
	{HID_MOD_KEY_RIGHT_ALT, "MOD_RIGHT_ALT"},
	{HID_MOD_KEY_RIGHT_GUI, "MOD_RIGHT_GUI"},
}

var keyNames = map[HIDKey]string{
	HID_KEY_NONE:        "KEY_NONE",
	HID_KEY_ENTER:       "KEY_ENTER",
	HID_KEY_ESC:         "KEY_ESC",
	HID_KEY_BACKSPACE:   "KEY_BACKSPACE",
	HID_KEY_TAB:         "KEY_TAB",
	HID_KEY_SPACE:       "KEY_SPACE",
	HID_KEY_MINUS:       "KEY_MINUS",
	HID_KEY_EQUAL:       "KEY_EQUAL",
	HID_KEY_LEFTBRACE:   "KEY_LEFTBRACE",
	HID_KEY_RIGHTBRACE:  "KEY_RIGHTBRACE",
	HID_KEY_BACKSLASH:   "KEY_BACKSLASH",
	HID_KEY_SEMICOLON:   "KEY_SEMICOLON",
	HID_KEY_APOSTROPHE:  "KEY_APOSTROPHE",
	HID_KEY_GRAVE:       "KEY_GRAVE",
	HID_KEY_COMMA:       "KEY_COMMA",
	HID_KEY_DOT:         "KEY_DOT",
	HID_KEY_SLASH:       "KEY_SLASH",
	HID_KEY_CAPSLOCK:    "KEY_CAPSLOCK",
	HID_KEY_PRINTSCREEN: "KEY_PRINTSCREEN",
	HID_KEY_SCROLLLOCK:  "KEY_SCROLLLOCK",
	HID_KEY_HOME:        "KEY_HOME",
	HID_KEY_DELETE:      "KEY_DELETE",
	HID_KEY_END:         "KEY_END",
	HID_KEY_RIGHT:       "KEY_RIGHT",
	HID_KEY_LEFT:        "KEY_LEFT",
	HID_KEY_DOWN:        "KEY_DOWN",
	HID_KEY_UP:          "KEY_UP",
	HID_KEY_NUMLOCK:     "KEY_NUMLOCK",
}

// US layout, unshifted and shifted character per key
var usLayout = map[HIDKey][2]byte{
	HID_KEY_ENTER:      {'\n', '\n'},
	HID_KEY_TAB:        {'\t', '\t'},
	HID_KEY_SPACE:      {' ', ' '},
	HID_KEY_0:          {'0', ')'},
	HID_KEY_MINUS:      {'-', '_'},
	HID_KEY_EQUAL:      {'=', '+'},
	HID_KEY_LEFTBRACE:  {'[', '{'},
	HID_KEY_RIGHTBRACE: {']', '}'},
	HID_KEY_BACKSLASH:  {'\\', '|'},
	HID_KEY_SEMICOLON:  {';', ':'},
	HID_KEY_APOSTROPHE: {'\'', '"'},
	HID_KEY_GRAVE:      {'`', '~'},
	HID_KEY_COMMA:      {',', '<'},
	HID_KEY_DOT:        {'.', '>'},
	HID_KEY_SLASH:      {'/', '?'},
}

var (
	StringToUsbKey    = map[string]HIDKey{}
	StringToUsbModKey = map[string]HIDMod{}

	asciiToKeyPress = map[byte]KeyPress{}
)

func init() {
	for k := HID_KEY_A; k <= HID_KEY_Z; k++ {
		c := byte('a') + byte(k-HID_KEY_A)
		keyNames[k] = "KEY_" + string(rune(c-0x20))
		usLayout[k] = [2]byte{c, c - 0x20}
	}
	for k, shifted := HID_KEY_1, "!@#$%^&*("; k <= HID_KEY_9; k++ {
		i := byte(k - HID_KEY_1)
		usLayout[k] = [2]byte{'1' + i, shifted[i]}
	}
	for k := HID_KEY_1; k <= HID_KEY_0; k++ {
		keyNames[k] = "KEY_" + string(rune(usLayout[k][0]))
	}
	for k := HID_KEY_F1; k <= HID_KEY_F12; k++ {
		keyNames[k] = fmt.Sprintf("KEY_F%d", int(k-HID_KEY_F1)+1)
	}

	for k, name := range keyNames {
		StringToUsbKey[name] = k
	}
	for _, m := range modNames {
		StringToUsbModKey[m.name] = m.mod
	}
	for k, chars := range usLayout {
		asciiToKeyPress[chars[0]] = KeyPress{Key: k}
		if chars[1] != chars[0] {
			asciiToKeyPress[chars[1]] = KeyPress{Mod: HID_MOD_KEY_LEFT_SHIFT, Key: k}
		}
	}
}

func (c HIDMod) String() string {
	names := make([]string, 0)
	for _, m := range modNames {
		if c&m.mod != 0 {
			names = append(names, m.name)
		}
	}
	if len(names) == 0 {
		return "MOD_NONE"
	}
	return strings.Join(names, "+")
}

func (c HIDKey) String() string {
	if name, ok := keyNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_HID_CODE_%02X", byte(c))
}

// KeyPress is a single key with its modifiers, pressed and released.
type KeyPress struct {
	Mod HIDMod
	Key HIDKey
}

func (kp KeyPress) String() string {
	if kp.Mod == 0 {
		return kp.Key.String()
	}
	return kp.Mod.String() + "+" + kp.Key.String()
}

// AsciiTransform returns the character typed by key with mod on a US layout, empty for
// keys without printable output.
func AsciiTransform(mod HIDMod, key HIDKey) string {
	chars, ok := usLayout[key]
	if !ok {
		return ""
	}
	if mod&hidModShift != 0 {
		return string(chars[1])
	}
	return string(chars[0])
}

// ParseText converts ASCII text to key presses for a US layout.
func ParseText(s string) (res []KeyPress, err error) {
	for i := 0; i < len(s); i++ {
		kp, ok := asciiToKeyPress[s[i]]
		if !ok {
			return nil, fmt.Errorf("%w: no key for character %q at offset %d", ErrUnknownKey, s[i], i)
		}
		res = append(res, kp)
	}
	return
}

// ParseKeyCombo parses combos like "MOD_LEFT_GUI+KEY_R". A combo consisting of
// modifiers only yields HID_KEY_NONE.
func ParseKeyCombo(s string) (kp KeyPress, err error) {
	for _, part := range strings.Split(strings.ToUpper(strings.TrimSpace(s)), "+") {
		part = strings.TrimSpace(part)
		if mod, ok := StringToUsbModKey[part]; ok {
			kp.Mod |= mod
			continue
		}
		key, ok := StringToUsbKey[part]
		if !ok {
			return KeyPress{}, fmt.Errorf("%w: '%s'", ErrUnknownKey, part)
		}
		if kp.Key != HID_KEY_NONE {
			return KeyPress{}, fmt.Errorf("combo '%s' holds more than one key", s)
		}
		kp.Key = key
	}
	return
}
