package unifying

import (
	"encoding/binary"
	"fmt"
)

/*
Encrypted keyboard report (22 bytes)

	0    1    2 .. 9          10 .. 13   14 .. 17            18 .. 20   21
	dev  type cipher (8)      counter    lightspeed ext (4)  0x00       chksm

Encrypted HID++ long report (30 bytes)

	0    1    2 .. 24                    25 .. 28            29
	dev  type cipher (23)                counter (LE)        chksm
*/

const (
	RF_REPORT_TYPE_MASK byte = 0x1f

	RF_REPORT_KEYBOARD_ENCRYPTED   byte = 0x13
	RF_REPORT_HIDPP_LONG_ENCRYPTED byte = 0x1b

	// type byte used for forged keyboard frames (0x13 with bits 6 and 7 set, as sent by real keyboards)
	RF_TYPE_BYTE_KEYBOARD_ENCRYPTED byte = 0xd3

	ENCRYPTED_KEYBOARD_FRAME_LEN   = 22
	ENCRYPTED_HIDPP_LONG_FRAME_LEN = 30

	KEYBOARD_REPORT_LEN   = 8
	HIDPP_LONG_REPORT_LEN = 23

	// last byte of a plain keyboard report, used to check if decryption succeeded
	REPORT_MARKER byte = 0xc9
)

type EncryptedKeyboardFrame [ENCRYPTED_KEYBOARD_FRAME_LEN]byte

// ParseEncryptedKeyboardFrame validates length and report type of a raw RF payload.
// Nothing beyond byte 1 is looked at on failure.
func ParseEncryptedKeyboardFrame(raw []byte) (frame EncryptedKeyboardFrame, err error) {
	if raw == nil {
		return frame, fmt.Errorf("%w: rf frame", ErrMissingInput)
	}
	if len(raw) != ENCRYPTED_KEYBOARD_FRAME_LEN {
		return frame, fmt.Errorf("%w: length %d, encrypted keyboard frame needs %d", ErrInvalidFrame, len(raw), ENCRYPTED_KEYBOARD_FRAME_LEN)
	}
	if raw[1]&RF_REPORT_TYPE_MASK != RF_REPORT_KEYBOARD_ENCRYPTED {
		return frame, fmt.Errorf("%w: report type %#02x is not an encrypted keyboard report", ErrInvalidFrame, raw[1]&RF_REPORT_TYPE_MASK)
	}

	copy(frame[:], raw)
	return
}

func (f *EncryptedKeyboardFrame) TypeTag() byte {
	return f[1] & RF_REPORT_TYPE_MASK
}

// Counter returns the counter bytes exactly as transmitted
func (f *EncryptedKeyboardFrame) Counter() (counter CounterBytes) {
	copy(counter[:], f[10:14])
	return
}

func (f *EncryptedKeyboardFrame) CipherText() []byte {
	return f[2:10]
}

// Extension is the region only used by Lightspeed devices.
func (f *EncryptedKeyboardFrame) Extension() []byte {
	return f[14:18]
}

func (f *EncryptedKeyboardFrame) Bytes() []byte {
	res := make([]byte, len(f))
	copy(res, f[:])
	return res
}

func (f EncryptedKeyboardFrame) String() string {
	return fmt.Sprintf("% 02x", f[:])
}

type EncryptedHidppLongFrame [ENCRYPTED_HIDPP_LONG_FRAME_LEN]byte

func ParseEncryptedHidppLongFrame(raw []byte) (frame EncryptedHidppLongFrame, err error) {
	if raw == nil {
		return frame, fmt.Errorf("%w: rf frame", ErrMissingInput)
	}
	if len(raw) != ENCRYPTED_HIDPP_LONG_FRAME_LEN {
		return frame, fmt.Errorf("%w: length %d, encrypted HID++ long frame needs %d", ErrInvalidFrame, len(raw), ENCRYPTED_HIDPP_LONG_FRAME_LEN)
	}
	if raw[1]&RF_REPORT_TYPE_MASK != RF_REPORT_HIDPP_LONG_ENCRYPTED {
		return frame, fmt.Errorf("%w: report type %#02x is not an encrypted HID++ long report", ErrInvalidFrame, raw[1]&RF_REPORT_TYPE_MASK)
	}

	copy(frame[:], raw)
	return
}

func (f *EncryptedHidppLongFrame) TypeTag() byte {
	return f[1] & RF_REPORT_TYPE_MASK
}

// Counter is always little endian for this report type, independent of the work mode.
func (f *EncryptedHidppLongFrame) Counter() uint32 {
	return binary.LittleEndian.Uint32(f[0x19:0x1d])
}

func (f *EncryptedHidppLongFrame) CipherText() []byte {
	return f[2:0x19]
}

func (f *EncryptedHidppLongFrame) Bytes() []byte {
	res := make([]byte, len(f))
	copy(res, f[:])
	return res
}

func (f EncryptedHidppLongFrame) String() string {
	return fmt.Sprintf("% 02x", f[:])
}

// KeyboardReport is the plain payload of an encrypted keyboard frame:
// modifiers, 6 key codes, marker.
type KeyboardReport [KEYBOARD_REPORT_LEN]byte

func NewKeyboardReport(modifiers byte, keys ...byte) (r KeyboardReport) {
	r[0] = modifiers
	if len(keys) > 6 {
		keys = keys[:6]
	}
	copy(r[1:7], keys)
	r[7] = REPORT_MARKER
	return
}

func (r KeyboardReport) Modifiers() byte {
	return r[0]
}

func (r KeyboardReport) Keys() []byte {
	keys := make([]byte, 6)
	copy(keys, r[1:7])
	return keys
}

func (r KeyboardReport) ContainsKey(key byte) bool {
	for i := 1; i < 7; i++ {
		if key == r[i] {
			return true
		}
	}
	return false
}

// MarkerValid reports if the trailing marker decrypted to 0xc9. A mismatch on an
// encrypted frame most likely means a wrong key.
func (r KeyboardReport) MarkerValid() bool {
	return r[7] == REPORT_MARKER
}

func (r KeyboardReport) String() string {
	return fmt.Sprintf("modifiers: %02x keys: % 02x", r[0], r[1:7])
}

type HidppLongReport [HIDPP_LONG_REPORT_LEN]byte

func (r HidppLongReport) String() string {
	return fmt.Sprintf("% 02x", r[:])
}
