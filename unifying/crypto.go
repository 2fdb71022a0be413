package unifying

import (
	"crypto/aes"
	"encoding/binary"
	"fmt"
)

const (
	AES_BLOCK_SIZE = aes.BlockSize
	DEVICE_KEY_LEN = 16
	COUNTER_LEN    = 4

	seedCounterOffset = 7
)

// little known secret, bytes 7..10 are replaced by the frame counter
var seedTemplate = AesBlock{0x04, 0x14, 0x1d, 0x1f, 0x27, 0x28, 0x0d, 0xde, 0xad, 0xbe, 0xef, 0x0a, 0x0d, 0x13, 0x26, 0x0e}

type AesBlock [16]byte

// FrameKey is the AES output used as XOR keystream for exactly one frame counter.
type FrameKey [16]byte

// CounterBytes holds a frame counter in the byte order it is transmitted with.
type CounterBytes [4]byte

func LittleEndianCounter(counter uint32) (res CounterBytes) {
	binary.LittleEndian.PutUint32(res[:], counter)
	return
}

func BigEndianCounter(counter uint32) (res CounterBytes) {
	binary.BigEndian.PutUint32(res[:], counter)
	return
}

// DeviceKey is the AES-128 link key of a paired device. Formatting it with %v or %s never
// reveals more than the first three bytes.
type DeviceKey [16]byte

func (k DeviceKey) Redacted() string {
	return fmt.Sprintf("% 02x **REDACTED**", k[:3])
}

func (k DeviceKey) String() string {
	return k.Redacted()
}

// SeedTemplate returns a copy of the fixed AES input block.
func SeedTemplate() AesBlock {
	return seedTemplate
}

// CalculateAESIndata patches the counter into a fresh copy of the seed template.
func CalculateAESIndata(counter CounterBytes) (aesindata AesBlock) {
	aesindata = seedTemplate
	copy(aesindata[seedCounterOffset:seedCounterOffset+COUNTER_LEN], counter[:])
	return
}

// BlockEncrypter encrypts data (a multiple of the AES block size) with key in ECB mode.
type BlockEncrypter func(data, key []byte) ([]byte, error)

func EncryptAes128Ecb(data, key []byte) ([]byte, error) {
	if len(key) != DEVICE_KEY_LEN {
		return nil, aes.KeySizeError(len(key))
	}
	if len(data)%AES_BLOCK_SIZE != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of %d", len(data), AES_BLOCK_SIZE)
	}

	cipher, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	encrypted := make([]byte, len(data))
	size := AES_BLOCK_SIZE

	for bs, be := 0, size; bs < len(data); bs, be = bs+size, be+size {
		cipher.Encrypt(encrypted[bs:be], data[bs:be])
	}

	return encrypted, nil
}

// CalculateFrameKey derives the frame key for counter with the default codec.
func CalculateFrameKey(deviceKey []byte, counter CounterBytes) (FrameKey, error) {
	return DefaultCodec.CalculateFrameKey(deviceKey, counter)
}

// xorKeystream XORs keystream onto dst, both have to be of the same length
func xorKeystream(dst []byte, keystream []byte) {
	for i := range dst {
		dst[i] ^= keystream[i]
	}
}
