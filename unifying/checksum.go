package unifying

func calculateLogitechChecksum(payload []byte) byte {
	chksum := byte(0xff)
	for i := 0; i < len(payload)-1; i++ {
		chksum = (chksum - payload[i]) & 0xff
	}
	return (chksum + 1) & 0xff
}

// LogitechChecksum overwrites the last byte of payload with the checksum over all
// preceding bytes.
func LogitechChecksum(payload []byte) {
	if len(payload) == 0 {
		return
	}
	payload[len(payload)-1] = calculateLogitechChecksum(payload)
}

func ValidLogitechChecksum(payload []byte) bool {
	if len(payload) == 0 {
		return false
	}
	return payload[len(payload)-1] == calculateLogitechChecksum(payload)
}
