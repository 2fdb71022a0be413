package unifying

import (
	"encoding/binary"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

type WorkMode byte

const (
	WORKMODE_UNIFYING WorkMode = iota
	WORKMODE_LIGHTSPEED
)

func (m WorkMode) String() string {
	switch m {
	case WORKMODE_UNIFYING:
		return "unifying"
	case WORKMODE_LIGHTSPEED:
		return "lightspeed"
	default:
		return fmt.Sprintf("UNDEFINED WORK MODE %02x", byte(m))
	}
}

func ParseWorkMode(s string) (WorkMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unifying", "classic":
		return WORKMODE_UNIFYING, nil
	case "lightspeed", "high-rate":
		return WORKMODE_LIGHTSPEED, nil
	}
	return WORKMODE_UNIFYING, fmt.Errorf("unknown work mode '%s'", s)
}

// CounterBytes serializes a keyboard frame counter. Unifying transmits it big endian,
// Lightspeed little endian.
func (m WorkMode) CounterBytes(counter uint32) CounterBytes {
	if m == WORKMODE_LIGHTSPEED {
		return LittleEndianCounter(counter)
	}
	return BigEndianCounter(counter)
}

func (m WorkMode) ParseCounter(counter CounterBytes) uint32 {
	if m == WORKMODE_LIGHTSPEED {
		return binary.LittleEndian.Uint32(counter[:])
	}
	return binary.BigEndian.Uint32(counter[:])
}

// Codec converts between plain reports and encrypted RF frames. The zero value is usable,
// nil fields fall back to AES-128 ECB from crypto/aes, LogitechChecksum and the standard
// logrus logger.
type Codec struct {
	Encrypt        BlockEncrypter
	UpdateChecksum func(payload []byte)
	Log            log.FieldLogger
}

func NewCodec() *Codec {
	return &Codec{
		Encrypt:        EncryptAes128Ecb,
		UpdateChecksum: LogitechChecksum,
		Log:            log.StandardLogger(),
	}
}

var DefaultCodec = NewCodec()

func (c *Codec) encrypter() BlockEncrypter {
	if c.Encrypt == nil {
		return EncryptAes128Ecb
	}
	return c.Encrypt
}

func (c *Codec) checksum() func([]byte) {
	if c.UpdateChecksum == nil {
		return LogitechChecksum
	}
	return c.UpdateChecksum
}

func (c *Codec) logger() log.FieldLogger {
	if c.Log == nil {
		return log.StandardLogger()
	}
	return c.Log
}

// CalculateFrameKey encrypts the seed template, patched with counter, under deviceKey.
func (c *Codec) CalculateFrameKey(deviceKey []byte, counter CounterBytes) (frameKey FrameKey, err error) {
	if len(deviceKey) == 0 {
		return frameKey, fmt.Errorf("%w: device key", ErrMissingInput)
	}

	aesin := CalculateAESIndata(counter)
	cipher, err := c.encrypter()(aesin[:], deviceKey)
	if err != nil {
		return frameKey, &CipherError{Err: err}
	}
	if len(cipher) != AES_BLOCK_SIZE {
		return frameKey, &CipherError{Err: fmt.Errorf("cipher returned %d bytes", len(cipher))}
	}

	copy(frameKey[:], cipher)
	c.logger().WithField("counter", fmt.Sprintf("% 02x", counter[:])).Debugf("frame key: % 02x", frameKey[:])
	return
}

// DecryptKeyboardFrame decrypts the 8 byte report of an encrypted keyboard frame. Only the
// first half of the frame key is used as keystream.
func (c *Codec) DecryptKeyboardFrame(deviceKey []byte, rfFrame []byte) (result KeyboardReport, err error) {
	if len(deviceKey) == 0 {
		return result, fmt.Errorf("%w: device key", ErrMissingInput)
	}
	frame, err := ParseEncryptedKeyboardFrame(rfFrame)
	if err != nil {
		return
	}

	frameKey, err := c.CalculateFrameKey(deviceKey, frame.Counter())
	if err != nil {
		return
	}

	copy(result[:], frame.CipherText())
	xorKeystream(result[:], frameKey[:KEYBOARD_REPORT_LEN])
	return
}

// DecryptHidppLongFrame decrypts the 23 byte payload of an encrypted HID++ long frame. Two
// successive counters are used: the key for counter covers the first 16 bytes, the key
// for counter+1 the remaining 7.
func (c *Codec) DecryptHidppLongFrame(deviceKey []byte, rfFrame []byte) (result HidppLongReport, err error) {
	if len(deviceKey) == 0 {
		return result, fmt.Errorf("%w: device key", ErrMissingInput)
	}
	frame, err := ParseEncryptedHidppLongFrame(rfFrame)
	if err != nil {
		return
	}

	counter1 := frame.Counter()
	counter2 := counter1 + 1
	c.logger().WithFields(log.Fields{
		"counter1": fmt.Sprintf("%08x", counter1),
		"counter2": fmt.Sprintf("%08x", counter2),
	}).Debug("decrypting HID++ long frame")

	frameKey1, err := c.CalculateFrameKey(deviceKey, LittleEndianCounter(counter1))
	if err != nil {
		return
	}
	frameKey2, err := c.CalculateFrameKey(deviceKey, LittleEndianCounter(counter2))
	if err != nil {
		return
	}

	var plain HidppLongReport
	copy(plain[:], frame.CipherText())
	xorKeystream(plain[:AES_BLOCK_SIZE], frameKey1[:])
	xorKeystream(plain[AES_BLOCK_SIZE:], frameKey2[:HIDPP_LONG_REPORT_LEN-AES_BLOCK_SIZE])

	return plain, nil
}

// EncryptKeyboardFrame forges an encrypted keyboard frame for report. Byte 7 of the report
// is always replaced by the 0xc9 marker. Any mode other than WORKMODE_LIGHTSPEED is
// handled as Unifying.
func (c *Codec) EncryptKeyboardFrame(deviceKey []byte, report KeyboardReport, counter uint32, mode WorkMode) (result EncryptedKeyboardFrame, err error) {
	if len(deviceKey) == 0 {
		return result, fmt.Errorf("%w: device key", ErrMissingInput)
	}

	var frame EncryptedKeyboardFrame
	frame[1] = RF_TYPE_BYTE_KEYBOARD_ENCRYPTED

	counterBytes := mode.CounterBytes(counter)
	copy(frame[10:14], counterBytes[:])

	frameKey, err := c.CalculateFrameKey(deviceKey, counterBytes)
	if err != nil {
		return
	}

	copy(frame[2:10], report[:])
	frame[9] = REPORT_MARKER
	xorKeystream(frame[2:10], frameKey[:KEYBOARD_REPORT_LEN])

	if mode == WORKMODE_LIGHTSPEED {
		ext := frame.Extension()
		for i := range ext {
			ext[i] = REPORT_MARKER
		}
		xorKeystream(ext, frameKey[8:12])
	}

	c.checksum()(frame[:])

	return frame, nil
}

// EncryptKeyboardPayload is EncryptKeyboardFrame for a raw payload of up to 8 bytes,
// shorter payloads are zero padded.
func (c *Codec) EncryptKeyboardPayload(deviceKey []byte, rawpay []byte, counter uint32, mode WorkMode) (result EncryptedKeyboardFrame, err error) {
	if len(rawpay) == 0 {
		return result, fmt.Errorf("%w: plain payload", ErrMissingInput)
	}
	if len(rawpay) > KEYBOARD_REPORT_LEN {
		return result, fmt.Errorf("%w: plain payload of %d bytes exceeds keyboard report length %d", ErrInvalidFrame, len(rawpay), KEYBOARD_REPORT_LEN)
	}

	var report KeyboardReport
	copy(report[:], rawpay)
	return c.EncryptKeyboardFrame(deviceKey, report, counter, mode)
}

// LightspeedExtension decrypts the extension region of a Lightspeed keyboard frame, a
// frame forged with the right key yields 0xc9 0xc9 0xc9 0xc9.
func (c *Codec) LightspeedExtension(deviceKey []byte, frame *EncryptedKeyboardFrame) (ext [4]byte, err error) {
	if len(deviceKey) == 0 || frame == nil {
		return ext, ErrMissingInput
	}
	frameKey, err := c.CalculateFrameKey(deviceKey, frame.Counter())
	if err != nil {
		return
	}
	copy(ext[:], frame.Extension())
	xorKeystream(ext[:], frameKey[8:12])
	return
}

func DecryptKeyboardFrame(deviceKey []byte, rfFrame []byte) (KeyboardReport, error) {
	return DefaultCodec.DecryptKeyboardFrame(deviceKey, rfFrame)
}

func DecryptHidppLongFrame(deviceKey []byte, rfFrame []byte) (HidppLongReport, error) {
	return DefaultCodec.DecryptHidppLongFrame(deviceKey, rfFrame)
}

func EncryptKeyboardFrame(deviceKey []byte, report KeyboardReport, counter uint32, mode WorkMode) (EncryptedKeyboardFrame, error) {
	return DefaultCodec.EncryptKeyboardFrame(deviceKey, report, counter, mode)
}
