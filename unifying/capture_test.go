package unifying

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eNoPayload = errors.New("no payload")

// fakeReceiver hands out canned firmware responses and cancels the capture once
// all of them were consumed.
type fakeReceiver struct {
	responses [][]byte
	errs      []error
	cancel    context.CancelFunc
}

func (r *fakeReceiver) ReceivePayload() ([]byte, error) {
	if len(r.responses) == 0 {
		r.cancel()
		return nil, eNoPayload
	}
	rsp, err := r.responses[0], r.errs[0]
	r.responses, r.errs = r.responses[1:], r.errs[1:]
	return rsp, err
}

func (r *fakeReceiver) push(rsp []byte, err error) {
	r.responses = append(r.responses, rsp)
	r.errs = append(r.errs, err)
}

func (r *fakeReceiver) pushPayload(pay []byte) {
	r.push(append([]byte{0x00}, pay...), nil)
}

type fakeTransmitter struct {
	sent   [][]byte
	failAt int
}

func (tx *fakeTransmitter) TransmitPayload(payload []byte, retransmitDelay byte, maxRetransmitCount byte) ([]byte, error) {
	if tx.failAt >= 0 && len(tx.sent) == tx.failAt {
		return nil, errors.New("no ack")
	}
	tx.sent = append(tx.sent, append([]byte{}, payload...))
	return []byte{}, nil
}

func TestCapture(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	failing := BigEndianCounter(0x0badf00d)
	dev := NewDevice(testAddr, WORKMODE_UNIFYING)
	dev.SetCodec(&Codec{Encrypt: func(data, key []byte) ([]byte, error) {
		if bytes.Equal(data[7:11], failing[:]) {
			return nil, errors.New("injected failure")
		}
		return EncryptAes128Ecb(data, key)
	}})
	require.NoError(t, dev.SetKey(testKey))

	kbd1, err := EncryptKeyboardFrame(testKey, NewKeyboardReport(0x00, 0x04), 1, WORKMODE_UNIFYING)
	require.NoError(t, err)
	kbdFailing, err := EncryptKeyboardFrame(testKey, NewKeyboardReport(0x00, 0x05), 0x0badf00d, WORKMODE_UNIFYING)
	require.NoError(t, err)
	kbdWrongKey, err := EncryptKeyboardFrame(mustHex(t, capturedKeyboardKey), NewKeyboardReport(0x00, 0x06), 3, WORKMODE_UNIFYING)
	require.NoError(t, err)
	plain := []byte{0x00, 0xc1, 0x00, 0x07, 0, 0, 0, 0, 0, 0}
	LogitechChecksum(plain)

	rx := &fakeReceiver{cancel: cancel}
	rx.push(nil, eNoPayload)
	rx.push([]byte{0x01}, nil)
	rx.push([]byte{0x00}, nil)
	rx.push(append([]byte{0x01}, kbd1[:]...), nil)
	rx.pushPayload(mustHex(t, "00 40 00 08 b8"))
	rx.pushPayload(kbd1[:])
	rx.pushPayload(kbdFailing[:])
	rx.pushPayload(hidppLongFrame(2, nil))
	rx.pushPayload(kbdWrongKey[:])
	rx.pushPayload(plain)

	var frames []DecryptedFrame
	err = Capture(ctx, rx, dev, func(device *Device, frameTime time.Duration, frame DecryptedFrame) bool {
		assert.Same(t, dev, device)
		frames = append(frames, frame)
		return true
	})
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, frames, 4)
	assert.Equal(t, FT_KEYBOARD_ENCRYPTED, frames[0].Type)
	assert.Equal(t, uint32(1), frames[0].Counter)
	assert.Equal(t, NewKeyboardReport(0x00, 0x04), frames[0].Keyboard)

	assert.Equal(t, FT_HIDPP_LONG_ENCRYPTED, frames[1].Type)
	assert.Equal(t, uint32(2), frames[1].Counter)

	// wrong key is only noticed by the marker, the frame is still handed out
	assert.Equal(t, uint32(3), frames[2].Counter)
	assert.NotEqual(t, NewKeyboardReport(0x00, 0x06), frames[2].Keyboard)

	assert.Equal(t, FT_KEYBOARD, frames[3].Type)
	assert.Equal(t, NewKeyboardReport(0x00, 0x07), frames[3].Keyboard)
}

func TestCaptureStopsOnCallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dev := NewDevice(testAddr, WORKMODE_UNIFYING)
	require.NoError(t, dev.SetKey(mustHex(t, capturedKeyboardKey)))

	rx := &fakeReceiver{cancel: cancel}
	rx.pushPayload(mustHex(t, capturedKeyboardFrame))
	rx.pushPayload(mustHex(t, capturedKeyboardFrame))

	calls := 0
	err := Capture(ctx, rx, dev, func(device *Device, frameTime time.Duration, frame DecryptedFrame) bool {
		calls++
		return false
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, rx.responses, 1)
}

func TestCaptureCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rx := &fakeReceiver{cancel: cancel}
	rx.pushPayload(mustHex(t, capturedKeyboardFrame))

	err := Capture(ctx, rx, NewDevice(testAddr, WORKMODE_UNIFYING), func(*Device, time.Duration, DecryptedFrame) bool {
		t.Error("callback called after cancel")
		return true
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, rx.responses, 1, "nothing received after cancel")
}

func TestInjectReports(t *testing.T) {
	for _, mode := range []WorkMode{WORKMODE_UNIFYING, WORKMODE_LIGHTSPEED} {
		t.Run(mode.String(), func(t *testing.T) {
			dev := NewDevice(testAddr, mode)
			require.NoError(t, dev.SetKey(testKey))
			dev.Counter = 0xfffffffe

			reports := []KeyboardReport{
				NewKeyboardReport(0x02, 0x0b),
				NewKeyboardReport(0x00),
				NewKeyboardReport(0x00, 0x0c),
			}
			tx := &fakeTransmitter{failAt: -1}
			require.NoError(t, InjectReports(context.Background(), tx, dev, reports, time.Millisecond))

			require.Len(t, tx.sent, len(reports))
			assert.Equal(t, uint32(1), dev.Counter, "counter wraps")

			for i, pay := range tx.sent {
				frame, err := dev.DecryptFrame(pay)
				require.NoError(t, err)
				assert.Equal(t, reports[i], frame.Keyboard)
				assert.Equal(t, uint32(0xfffffffe)+uint32(i), frame.Counter)
			}
		})
	}
}

func TestInjectReportsErrors(t *testing.T) {
	reports := []KeyboardReport{NewKeyboardReport(0x00, 0x04), NewKeyboardReport(0x00)}

	t.Run("missing key", func(t *testing.T) {
		tx := &fakeTransmitter{failAt: -1}
		err := InjectReports(context.Background(), tx, NewDevice(testAddr, WORKMODE_UNIFYING), reports, 0)
		assert.ErrorIs(t, err, ErrMissingInput)
		assert.Empty(t, tx.sent)
	})

	t.Run("transmit failure", func(t *testing.T) {
		dev := NewDevice(testAddr, WORKMODE_UNIFYING)
		require.NoError(t, dev.SetKey(testKey))
		dev.Counter = 0x10

		tx := &fakeTransmitter{failAt: 1}
		err := InjectReports(context.Background(), tx, dev, reports, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "report 1")
		assert.Contains(t, err.Error(), "00000011")
		assert.Len(t, tx.sent, 1)
		// a counter used on air is burned, even without ack
		assert.Equal(t, uint32(0x12), dev.Counter)
	})

	t.Run("cancelled", func(t *testing.T) {
		dev := NewDevice(testAddr, WORKMODE_UNIFYING)
		require.NoError(t, dev.SetKey(testKey))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		tx := &fakeTransmitter{failAt: -1}
		err := InjectReports(ctx, tx, dev, reports, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, tx.sent)
		assert.Equal(t, uint32(0), dev.Counter)
	})
}
