package unifying

import (
	"errors"
	"fmt"
)

var ErrInvalidKeyLength = errors.New("device key has to be 16 bytes")

// Device tracks what is known about a single paired device: its RF address, the link key
// (if any), the next counter used for forged keyboard frames and the work mode.
type Device struct {
	RfAddress Nrf24Addr
	Key       DeviceKey
	Counter   uint32
	Mode      WorkMode

	keyPresent bool
	codec      *Codec
}

func NewDevice(addr Nrf24Addr, mode WorkMode) *Device {
	return &Device{
		RfAddress: addr,
		Mode:      mode,
		codec:     DefaultCodec,
	}
}

func (d *Device) SetCodec(c *Codec) {
	d.codec = c
}

func (d *Device) getCodec() *Codec {
	if d.codec == nil {
		return DefaultCodec
	}
	return d.codec
}

func (d *Device) SetKey(key []byte) error {
	if len(key) != DEVICE_KEY_LEN {
		return fmt.Errorf("%w, got %d", ErrInvalidKeyLength, len(key))
	}
	copy(d.Key[:], key)
	d.keyPresent = true
	return nil
}

func (d *Device) UnsetKey() {
	d.Key = DeviceKey{}
	d.keyPresent = false
}

func (d *Device) HasKey() bool {
	return d.keyPresent
}

// keyBytes is nil without key, which the codec reports as ErrMissingInput
func (d *Device) keyBytes() []byte {
	if !d.keyPresent {
		return nil
	}
	return d.Key[:]
}

func (d *Device) String() string {
	res := fmt.Sprintf("Device %s (%s)", d.RfAddress.String(), d.Mode)
	if d.keyPresent {
		res += fmt.Sprintf(", key: %s", d.Key.Redacted())
	} else {
		res += ", key: none"
	}
	return res + fmt.Sprintf(", next counter: %08x", d.Counter)
}

type DecryptedFrame struct {
	Type    RFFrameType
	Counter uint32
	Raw     []byte

	Keyboard  KeyboardReport
	HidppLong HidppLongReport
}

// Payload returns the decrypted bytes for the frame type.
func (f DecryptedFrame) Payload() []byte {
	if f.Type == FT_HIDPP_LONG_ENCRYPTED {
		return f.HidppLong[:]
	}
	return f.Keyboard[:]
}

func (f DecryptedFrame) String() string {
	if f.Type == FT_HIDPP_LONG_ENCRYPTED {
		return fmt.Sprintf("%s counter %08x: %s", f.Type, f.Counter, f.HidppLong)
	}
	return fmt.Sprintf("%s counter %08x: %s", f.Type, f.Counter, f.Keyboard)
}

// DecryptFrame classifies pay and decrypts it with the device key. Unencrypted keyboard
// frames are converted to the same report layout.
func (d *Device) DecryptFrame(pay []byte) (result DecryptedFrame, err error) {
	ft := ClassifyRFFrame(pay)
	result.Type = ft
	result.Raw = make([]byte, len(pay))
	copy(result.Raw, pay)

	switch ft {
	case FT_KEYBOARD:
		if len(pay) != 10 {
			return result, fmt.Errorf("%w: unexpected length %d for %s", ErrInvalidFrame, len(pay), ft)
		}
		copy(result.Keyboard[:], pay[2:9])
		result.Keyboard[7] = REPORT_MARKER
		return
	case FT_KEYBOARD_ENCRYPTED:
		frame, eParse := ParseEncryptedKeyboardFrame(pay)
		if eParse != nil {
			return result, eParse
		}
		result.Counter = d.Mode.ParseCounter(frame.Counter())
		result.Keyboard, err = d.getCodec().DecryptKeyboardFrame(d.keyBytes(), pay)
		return
	case FT_HIDPP_LONG_ENCRYPTED:
		frame, eParse := ParseEncryptedHidppLongFrame(pay)
		if eParse != nil {
			return result, eParse
		}
		result.Counter = frame.Counter()
		result.HidppLong, err = d.getCodec().DecryptHidppLongFrame(d.keyBytes(), pay)
		return
	}

	return result, fmt.Errorf("%w: wrong frame type: %s", ErrInvalidFrame, ft)
}

// EncryptKeyboardReport forges a keyboard frame with the current counter and advances the
// counter on success.
func (d *Device) EncryptKeyboardReport(report KeyboardReport) (pay []byte, err error) {
	frame, err := d.getCodec().EncryptKeyboardFrame(d.keyBytes(), report, d.Counter, d.Mode)
	if err != nil {
		return nil, err
	}
	d.Counter++
	return frame.Bytes(), nil
}
