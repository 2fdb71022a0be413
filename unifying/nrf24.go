package unifying

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
	log "github.com/sirupsen/logrus"
)

const NRF24_DEFAULT_TIMOUT = time.Millisecond * 2500

const (
	NRF24_VID gousb.ID = 0x1915
	NRF24_PID gousb.ID = 0x0102
)

var ErrNRF24NotFound = errors.New("NRF24 device not found")

// NRF24 drives a CrazyRadio PA (or nRF24LU1+ dongle) running the nrf-research-firmware.
type NRF24 struct {
	ctx    *gousb.Context
	device *gousb.Device
	config *gousb.Config
	iface  *gousb.Interface
	epOut  *gousb.OutEndpoint
	epIn   *gousb.InEndpoint

	channels    []byte
	channel_idx int
}

func NewNRF24() (res *NRF24, err error) {
	res = &NRF24{
		ctx:      gousb.NewContext(),
		channels: LogitechChannelsOptimized(),
	}

	res.device, err = res.ctx.OpenDeviceWithVIDPID(NRF24_VID, NRF24_PID)
	if err != nil {
		res.Close()
		return nil, err
	}
	if res.device == nil {
		res.Close()
		return nil, ErrNRF24NotFound
	}

	res.device.Reset()
	res.device.SetAutoDetach(true)

	res.config, err = res.device.Config(1)
	if err != nil {
		res.Close()
		return nil, err
	}

	// claim interface (idx 0, alt 0)
	res.iface, err = res.config.Interface(0, 0)
	if err != nil {
		res.Close()
		return nil, err
	}

	res.epIn, err = res.iface.InEndpoint(1)
	if err != nil {
		res.Close()
		return nil, err
	}
	res.epOut, err = res.iface.OutEndpoint(1)
	if err != nil {
		res.Close()
		return nil, err
	}

	log.WithFields(log.Fields{"in": fmt.Sprintf("%+v", res.epIn), "out": fmt.Sprintf("%+v", res.epOut)}).Debug("NRF24 endpoints claimed")
	return res, nil
}

func (d *NRF24) Close() {
	if d.iface != nil {
		d.iface.Close()
	}
	if d.config != nil {
		d.config.Close()
	}
	if d.device != nil {
		d.device.Close()
	}
	if d.ctx != nil {
		d.ctx.Close()
	}
}

func (d *NRF24) Read(buf []byte, timeout time.Duration) (n int, err error) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return d.epIn.ReadContext(ctx, buf)
}

func (d *NRF24) SendCommand(command NRF24_COMMAND, data []byte, timeout time.Duration) (err error) {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dataRaw := []byte{byte(command)}
	dataRaw = append(dataRaw, data...)

	for len(dataRaw) > 0 {
		n, err := d.epOut.WriteContext(ctx, dataRaw)
		if err != nil {
			return err
		}
		dataRaw = dataRaw[n:]
	}

	return nil
}

// command sends a command and reads the response of the firmware
func (d *NRF24) command(command NRF24_COMMAND, data []byte) (rsp []byte, err error) {
	if err = d.SendCommand(command, data, NRF24_DEFAULT_TIMOUT); err != nil {
		return
	}
	buf := make([]byte, 64)
	n, err := d.Read(buf, NRF24_DEFAULT_TIMOUT)
	if err != nil {
		return
	}
	return buf[:n], nil
}

func (d *NRF24) SetChannel(channel byte) (err error) {
	if channel > 125 {
		channel = 125
	}
	_, err = d.command(SET_CHANNEL, []byte{channel})
	return err
}

func (d *NRF24) GetChannel() (ch byte, err error) {
	rsp, err := d.command(GET_CHANNEL, []byte{})
	if err != nil {
		return 0, err
	}
	if len(rsp) != 1 {
		return 0, errors.New("error reading current channel")
	}
	return rsp[0], nil
}

// TransmitPayload sends payload and waits for an ack, the ack payload (if any) is returned.
func (d *NRF24) TransmitPayload(payload []byte, retransmitDelay byte, maxRetransmitCount byte) (ackPay []byte, err error) {
	ackPay = []byte{}
	data := []byte{byte(len(payload)), retransmitDelay, maxRetransmitCount}
	data = append(data, payload...)

	buf, err := d.command(TRANSMIT_PAYLOAD, data)
	if err != nil {
		return ackPay, err
	}
	if len(buf) == 0 || buf[0] == 0 {
		return ackPay, errors.New("error in TransmitPayload")
	}
	if buf[0] > 32 || int(buf[0]) > len(buf) {
		return ackPay, fmt.Errorf("weird USB response on TransmitPayload: % x", buf)
	}
	if buf[0] > 1 {
		ackPay = buf[1:buf[0]]
	}

	log.WithField("ack", fmt.Sprintf("% x", ackPay)).Debugf("TX: % x", payload)
	return ackPay, nil
}

// ReceivePayload returns the raw firmware response, byte 0 indicates success (0x00) of
// the read, the RF payload follows.
func (d *NRF24) ReceivePayload() (payload []byte, err error) {
	return d.command(RECEIVE_PAYLOAD, make([]byte, 64))
}

func (d *NRF24) EnterSnifferMode(address Nrf24Addr, enableAutoAck bool) (err error) {
	pay := []byte{0x00, byte(len(address))}
	if enableAutoAck {
		pay[0] = 0x01
	}
	pay = append(pay, address.Reverse()...)

	_, err = d.command(ENTER_SNIFFER_MODE, pay)
	return err
}

// EnableLNA enables the amplifier of the CrazyRadio PA
func (d *NRF24) EnableLNA() (err error) {
	_, err = d.command(ENABLE_LNA_PA, []byte{})
	return err
}

func (d *NRF24) NextChannel() (err error) {
	d.channel_idx++
	d.channel_idx %= len(d.channels)
	return d.SetChannel(d.channels[d.channel_idx])
}

// FindDevice pings the dongle of the address (already set in sniffer mode) on all
// channels till an ack arrives.
func (d *NRF24) FindDevice(ctx context.Context) (channel byte, err error) {
	payPing := []byte{0x00}
	LogitechChecksum(payPing)
	for i := 0; i < len(d.channels)*3; i++ {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if _, ackErr := d.TransmitPayload(payPing, 0, 0); ackErr == nil {
			return d.channels[d.channel_idx], nil
		}
		d.NextChannel()
	}

	return 0, errors.New("device not found in this run")
}

// Follower re-locates the channel of a device when no frames have been received for
// RescanDelay, as the dongle hops channels whenever the link gets idle.
type Follower struct {
	Radio       *NRF24
	Ctx         context.Context
	RescanDelay time.Duration

	lastFrame time.Time
}

func (f *Follower) ReceivePayload() (payload []byte, err error) {
	if f.lastFrame.IsZero() || time.Since(f.lastFrame) > f.RescanDelay {
		ch, eFind := f.Radio.FindDevice(f.Ctx)
		if eFind != nil {
			return nil, eFind
		}
		log.WithField("channel", ch).Info("found dongle, waiting for traffic")
		f.lastFrame = time.Now()
	}

	payload, err = f.Radio.ReceivePayload()
	if err == nil && len(payload) > 1 {
		f.lastFrame = time.Now()
	}
	return
}

// LogitechChannelsOptimized is the channel order most likely to hit a hopping Unifying dongle fast.
func LogitechChannelsOptimized() []byte {
	return []byte{5, 14, 17, 20, 8, 11, 32, 35, 38, 41, 44, 29, 56, 47, 68, 71, 74, 59, 62, 65}
}

type NRF24_COMMAND byte

const (
	TRANSMIT_PAYLOAD               NRF24_COMMAND = 0x04
	ENTER_SNIFFER_MODE             NRF24_COMMAND = 0x05
	ENTER_PROMISCUOUS_MODE         NRF24_COMMAND = 0x06
	ENTER_TONE_TEST_MODE           NRF24_COMMAND = 0x07
	TRANSMIT_ACK_PAYLOAD           NRF24_COMMAND = 0x08
	SET_CHANNEL                    NRF24_COMMAND = 0x09
	GET_CHANNEL                    NRF24_COMMAND = 0x0A
	ENABLE_LNA_PA                  NRF24_COMMAND = 0x0B
	TRANSMIT_PAYLOAD_GENERIC       NRF24_COMMAND = 0x0C
	ENTER_PROMISCUOUS_MODE_GENERIC NRF24_COMMAND = 0x0D
	RECEIVE_PAYLOAD                NRF24_COMMAND = 0x12
)
