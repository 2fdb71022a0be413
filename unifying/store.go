package unifying

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

type DeviceType byte

const (
	DEVICE_TYPE_UNKNOWN   DeviceType = 0x00
	DEVICE_TYPE_KEYBOARD  DeviceType = 0x01
	DEVICE_TYPE_MOUSE     DeviceType = 0x02
	DEVICE_TYPE_NUMPAD    DeviceType = 0x03
	DEVICE_TYPE_PRESENTER DeviceType = 0x04
	DEVICE_TYPE_TRACKBALL DeviceType = 0x08
	DEVICE_TYPE_TOUCHPAD  DeviceType = 0x09
)

func (t DeviceType) String() string {
	switch t {
	case DEVICE_TYPE_KEYBOARD:
		return "KEYBOARD"
	case DEVICE_TYPE_MOUSE:
		return "MOUSE"
	case DEVICE_TYPE_NUMPAD:
		return "NUMPAD"
	case DEVICE_TYPE_PRESENTER:
		return "PRESENTER"
	case DEVICE_TYPE_TRACKBALL:
		return "TRACKBALL"
	case DEVICE_TYPE_TOUCHPAD:
		return "TOUCHPAD"
	case DEVICE_TYPE_UNKNOWN:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("UNDEFINED DEVICE TYPE %02x", byte(t))
	}
}

// DeviceInfo is the stored state of a paired device. Mode and NextCounter are empty in
// dumps taken right after pairing.
type DeviceInfo struct {
	DeviceIndex   byte
	DestinationID byte
	DeviceType    DeviceType
	RFAddr        []byte
	Key           []byte
	Name          string

	Mode        string `json:",omitempty"`
	NextCounter uint32 `json:",omitempty"`
}

func (di *DeviceInfo) String() string {
	res := fmt.Sprintf("Device Info for device index %d\n", di.DeviceIndex)
	res += "-------------------------------------\n"
	res += fmt.Sprintf("\tDevice type:                 %#02x (%s)\n", byte(di.DeviceType), di.DeviceType)
	res += fmt.Sprintf("\tName:                        %s\n", di.Name)
	res += fmt.Sprintf("\tRF address:                  %s\n", Nrf24Addr(di.RFAddr))
	if len(di.Key) >= 3 {
		res += fmt.Sprintf("\tKey:                         % 02x **REDACTED**\n", di.Key[:3])
	} else {
		res += "\tKey:                         none (no link encryption in use)\n"
	}
	if di.Mode != "" {
		res += fmt.Sprintf("\tWork mode:                   %s\n", di.Mode)
	}
	res += fmt.Sprintf("\tNext counter:                %08x\n", di.NextCounter)
	return res
}

// Device creates a Device from the stored state, without key if none was stored.
func (di *DeviceInfo) Device() (*Device, error) {
	mode := WORKMODE_UNIFYING
	if di.Mode != "" {
		var err error
		if mode, err = ParseWorkMode(di.Mode); err != nil {
			return nil, err
		}
	}

	addr := make(Nrf24Addr, len(di.RFAddr))
	copy(addr, di.RFAddr)
	dev := NewDevice(addr, mode)
	if len(di.Key) > 0 {
		if err := dev.SetKey(di.Key); err != nil {
			return nil, err
		}
	}
	dev.Counter = di.NextCounter
	return dev, nil
}

type DongleInfo struct {
	WPID   []byte
	Serial []byte
}

// SetInfo is a dongle together with its paired devices.
type SetInfo struct {
	Dongle           DongleInfo
	ConnectedDevices []DeviceInfo
}

func (si *SetInfo) AddDevice(d DeviceInfo) {
	// device address is the dongle serial followed by the destination ID
	if len(d.RFAddr) == 0 && len(si.Dongle.Serial) > 0 {
		d.RFAddr = append(append([]byte{}, si.Dongle.Serial...), d.DestinationID)
	}
	si.ConnectedDevices = append(si.ConnectedDevices, d)
}

func (si *SetInfo) Lookup(addr Nrf24Addr) (*DeviceInfo, bool) {
	for i := range si.ConnectedDevices {
		if bytes.Equal(si.ConnectedDevices[i].RFAddr, addr) {
			return &si.ConnectedDevices[i], true
		}
	}
	return nil, false
}

// UpdateDevice stores key, mode and next counter of dev, adding a new entry for unknown addresses.
func (si *SetInfo) UpdateDevice(dev *Device) {
	di, found := si.Lookup(dev.RfAddress)
	if !found {
		si.AddDevice(DeviceInfo{RFAddr: append([]byte{}, dev.RfAddress...)})
		di = &si.ConnectedDevices[len(si.ConnectedDevices)-1]
	}
	if dev.HasKey() {
		di.Key = append([]byte{}, dev.Key[:]...)
	}
	di.Mode = dev.Mode.String()
	di.NextCounter = dev.Counter
}

func (si *SetInfo) String() (res string) {
	res = fmt.Sprintf("Dongle serial: % 02x\n", si.Dongle.Serial)
	for i := range si.ConnectedDevices {
		res += fmt.Sprintln()
		res += si.ConnectedDevices[i].String()
	}
	return
}

// Store writes the set as JSON, readable by the owner only as it holds link keys.
func (si SetInfo) Store(filename string) (err error) {
	j, eJ := json.MarshalIndent(si, "", "  ")
	if eJ != nil {
		return eJ
	}

	if err = os.WriteFile(filename, j, 0600); err != nil {
		return err
	}
	log.WithField("devices", len(si.ConnectedDevices)).Infof("device data stored to '%s'", filename)
	return nil
}

func LoadSetInfoFromFile(filename string) (res *SetInfo, err error) {
	j, eJ := os.ReadFile(filename)
	if eJ != nil {
		return nil, eJ
	}

	res = &SetInfo{}
	if err = json.Unmarshal(j, res); err != nil {
		return nil, fmt.Errorf("parsing '%s': %w", filename, err)
	}
	return res, nil
}
