package unifying

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	INJECT_RETRANSMIT_DELAY byte = 3
	INJECT_RETRANSMIT_COUNT byte = 4
)

type PayloadReceiver interface {
	ReceivePayload() ([]byte, error)
}

type PayloadTransmitter interface {
	TransmitPayload(payload []byte, retransmitDelay byte, maxRetransmitCount byte) ([]byte, error)
}

// CaptureCallback is called for every frame which could be decrypted, returning false
// stops the capture.
type CaptureCallback func(device *Device, frameTime time.Duration, frame DecryptedFrame) (goOn bool)

// Capture reads payloads from rx and decrypts keyboard and HID++ long frames of device.
// Frames failing to decrypt are logged with their error kind and skipped. Receive errors
// are treated as "no data", the capture only ends with ctx or the callback.
func Capture(ctx context.Context, rx PayloadReceiver, device *Device, callback CaptureCallback) error {
	startTime := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		p, eRead := rx.ReceivePayload()
		if eRead != nil {
			log.WithError(eRead).Debug("no payload received")
			continue
		}
		// first byte is the read status of the firmware
		if len(p) <= 1 || p[0] != 0x00 {
			continue
		}
		pay := p[1:]

		class := ClassifyRFFrame(pay)
		if !class.Encrypted() && class != FT_KEYBOARD {
			log.WithField("type", class).Debugf("ignored frame % 02x", pay)
			continue
		}

		frame, eDecrypt := device.DecryptFrame(pay)
		if eDecrypt != nil {
			log.WithFields(log.Fields{
				"kind":    KindOf(eDecrypt),
				"type":    class,
				"address": device.RfAddress.String(),
			}).Warnf("skipping frame: %v", eDecrypt)
			continue
		}
		if class == FT_KEYBOARD_ENCRYPTED && !frame.Keyboard.MarkerValid() {
			log.WithField("counter", fmt.Sprintf("%08x", frame.Counter)).Warn("decrypted report has no 0xc9 marker, wrong or unknown key")
		}

		if !callback(device, time.Since(startTime), frame) {
			return nil
		}
	}
}

// InjectReports encrypts reports with successive counters of device and transmits them,
// waiting delay between frames.
func InjectReports(ctx context.Context, tx PayloadTransmitter, device *Device, reports []KeyboardReport, delay time.Duration) error {
	for idx, report := range reports {
		if err := ctx.Err(); err != nil {
			return err
		}

		counter := device.Counter
		pay, err := device.EncryptKeyboardReport(report)
		if err != nil {
			return fmt.Errorf("encrypting report %d: %w", idx, err)
		}
		if _, eTx := tx.TransmitPayload(pay, INJECT_RETRANSMIT_DELAY, INJECT_RETRANSMIT_COUNT); eTx != nil {
			return fmt.Errorf("transmitting report %d (counter %08x): %w", idx, counter, eTx)
		}
		log.WithFields(log.Fields{
			"counter": fmt.Sprintf("%08x", counter),
			"report":  report.String(),
		}).Debugf("injected % 02x", pay)

		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return nil
}
