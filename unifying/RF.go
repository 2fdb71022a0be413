package unifying

/*
RF frame type (byte 1, low 5 bits unless noted)

0x01	b0000 0001	Keyboard report
0x02	b0000 0010	Mouse report
0x03	b0000 0011	Media key report
0x04	b0000 0100	System Control report (Sleep, PowerDown, WakeUp)
0x0e	b0000 1110	LED report (host to device)

0x10	b0001 0000	HID++ short
0x11	b0001 0001	HID++ long

0xd3	b1101 0011	(0x13 after masking) Keyboard report encrypted, 22 bytes
0x5b	b0101 1011	(0x1b after masking) HID++ long encrypted, 30 bytes

0x40	b0100 0000	Keep alive notification (unmasked)
0x4f	b0100 1111	Set keep alive (unmasked)
*/

type RFFrameType int

const (
	FT_UNKNOWN RFFrameType = iota
	FT_NOT_LOGITECH
	FT_INVALID_CHKSM
	FT_KEYBOARD
	FT_KEYBOARD_ENCRYPTED
	FT_MOUSE
	FT_SYSTEM_CONTROL
	FT_MEDIA
	FT_LED_REPORT
	FT_HIDPP_SHORT
	FT_HIDPP_LONG
	FT_HIDPP_LONG_ENCRYPTED

	FT_NOTIFICATION_KEEP_ALIVE
	FT_SET_KEEP_ALIVE
)

func (t RFFrameType) String() string {
	switch t {
	case FT_UNKNOWN:
		return "UNKNOWN"
	case FT_NOT_LOGITECH:
		return "NOT LOGITECH"
	case FT_INVALID_CHKSM:
		return "INVALID CHECKSUM"
	case FT_KEYBOARD:
		return "UNENCRYPTED KEYBOARD REPORT"
	case FT_KEYBOARD_ENCRYPTED:
		return "ENCRYPTED KEYBOARD REPORT"
	case FT_MOUSE:
		return "UNENCRYPTED MOUSE REPORT"
	case FT_SYSTEM_CONTROL:
		return "UNENCRYPTED SYSTEM CONTROL REPORT"
	case FT_MEDIA:
		return "UNENCRYPTED MEDIA KEY REPORT"
	case FT_LED_REPORT:
		return "LED REPORT"
	case FT_HIDPP_SHORT:
		return "HID++ SHORT"
	case FT_HIDPP_LONG:
		return "HID++ LONG"
	case FT_HIDPP_LONG_ENCRYPTED:
		return "ENCRYPTED HID++ LONG"
	case FT_NOTIFICATION_KEEP_ALIVE:
		return "NOTIFICATION KEEP ALIVE"
	case FT_SET_KEEP_ALIVE:
		return "SET KEEP ALIVE"
	}

	return "No type string defined"
}

// Encrypted reports the frame types this package is able to decrypt.
func (t RFFrameType) Encrypted() bool {
	return t == FT_KEYBOARD_ENCRYPTED || t == FT_HIDPP_LONG_ENCRYPTED
}

func ClassifyRFFrame(pay []byte) (ftype RFFrameType) {
	l := len(pay)
	if l != 5 && l != 10 && l != 22 && l != ENCRYPTED_HIDPP_LONG_FRAME_LEN {
		return FT_NOT_LOGITECH
	}

	if !ValidLogitechChecksum(pay) {
		return FT_INVALID_CHKSM
	}

	//dev id is pay[0]
	rfTypeByte := pay[1]
	rfType := rfTypeByte & RF_REPORT_TYPE_MASK

	switch {
	case rfTypeByte == 0x40 && l == 5:
		return FT_NOTIFICATION_KEEP_ALIVE
	case rfTypeByte == 0x4f && l == 10:
		return FT_SET_KEEP_ALIVE
	case rfType == RF_REPORT_KEYBOARD_ENCRYPTED && l == ENCRYPTED_KEYBOARD_FRAME_LEN:
		return FT_KEYBOARD_ENCRYPTED
	case rfType == RF_REPORT_HIDPP_LONG_ENCRYPTED && l == ENCRYPTED_HIDPP_LONG_FRAME_LEN:
		return FT_HIDPP_LONG_ENCRYPTED
	case rfType == 0x0e:
		return FT_LED_REPORT
	case rfType == 0x10:
		return FT_HIDPP_SHORT
	case rfType == 0x11:
		return FT_HIDPP_LONG
	case rfType == 0x01:
		return FT_KEYBOARD
	case rfType == 0x02:
		return FT_MOUSE
	case rfType == 0x03:
		return FT_MEDIA
	case rfType == 0x04:
		return FT_SYSTEM_CONTROL
	}

	return FT_UNKNOWN
}
