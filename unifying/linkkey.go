package unifying

import "fmt"

// PairingData holds the values exchanged in plain during pairing, which fully determine
// the link key of a Unifying device.
type PairingData struct {
	DongleSerial [4]byte // pairing response phase 1, first 4 bytes of the device address
	DeviceWPID   [2]byte // pairing request phase 1
	DongleWPID   [2]byte // pairing response phase 1
	DeviceNonce  [4]byte // pairing request phase 2
	DongleNonce  [4]byte // pairing response phase 2
}

func (p PairingData) String() string {
	return fmt.Sprintf("dongle serial: % 02x device WPID: % 02x dongle WPID: % 02x device nonce: % 02x dongle nonce: % 02x",
		p.DongleSerial[:], p.DeviceWPID[:], p.DongleWPID[:], p.DeviceNonce[:], p.DongleNonce[:])
}

// LinkKey derives the device key: a fixed byte permutation of the pairing data, some bytes
// inverted or xor'ed with 0x55.
func (p PairingData) LinkKey() (key DeviceKey) {
	var kd [16]byte
	copy(kd[0:4], p.DongleSerial[:])
	copy(kd[4:6], p.DeviceWPID[:])
	copy(kd[6:8], p.DongleWPID[:])
	copy(kd[8:12], p.DeviceNonce[:])
	copy(kd[12:16], p.DongleNonce[:])

	key[0] = kd[7]
	key[1] = kd[1] ^ 0xff
	key[2] = kd[0]
	key[3] = kd[3]
	key[4] = kd[10]
	key[5] = kd[2] ^ 0xff
	key[6] = kd[9] ^ 0x55
	key[7] = kd[14]
	key[8] = kd[8]
	key[9] = kd[6]
	key[10] = kd[12] ^ 0xff
	key[11] = kd[5]
	key[12] = kd[13]
	key[13] = kd[15] ^ 0x55
	key[14] = kd[4]
	key[15] = kd[11]
	return
}
