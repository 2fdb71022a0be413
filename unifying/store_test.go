package unifying

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetInfoStoreAndLoad(t *testing.T) {
	si := &SetInfo{Dongle: DongleInfo{Serial: []byte{0xe2, 0xc7, 0x94, 0xf2}}}
	si.AddDevice(DeviceInfo{DestinationID: 0x4c, DeviceType: DEVICE_TYPE_KEYBOARD, Name: "K400", Key: mustHex(t, capturedKeyboardKey)})

	di, found := si.Lookup(testAddr)
	require.True(t, found)
	assert.Equal(t, "K400", di.Name)
	// serial of the dongle must not be aliased
	assert.Equal(t, []byte{0xe2, 0xc7, 0x94, 0xf2}, si.Dongle.Serial)

	dev, err := di.Device()
	require.NoError(t, err)
	assert.Equal(t, WORKMODE_UNIFYING, dev.Mode)
	dev.Counter = 0x8cc37baa
	pay, err := dev.EncryptKeyboardReport(NewKeyboardReport(0x00))
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, capturedKeyboardFrame), pay)

	si.UpdateDevice(dev)
	fn := filepath.Join(t.TempDir(), "dongle.dat")
	require.NoError(t, si.Store(fn))

	fi, err := os.Stat(fn)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())

	loaded, err := LoadSetInfoFromFile(fn)
	require.NoError(t, err)
	require.Len(t, loaded.ConnectedDevices, 1)
	assert.Equal(t, "unifying", loaded.ConnectedDevices[0].Mode)
	assert.Equal(t, uint32(0x8cc37bab), loaded.ConnectedDevices[0].NextCounter)

	dev, err = loaded.ConnectedDevices[0].Device()
	require.NoError(t, err)
	assert.True(t, dev.HasKey())
	assert.Equal(t, uint32(0x8cc37bab), dev.Counter)
	assert.NotContains(t, loaded.String(), "34 65 99")
}

func TestSetInfoUpdateUnknownDevice(t *testing.T) {
	si := &SetInfo{}
	dev := NewDevice(testAddr, WORKMODE_LIGHTSPEED)
	dev.Counter = 7
	si.UpdateDevice(dev)

	di, found := si.Lookup(testAddr)
	require.True(t, found)
	assert.Empty(t, di.Key)
	assert.Equal(t, "lightspeed", di.Mode)
	assert.Contains(t, di.String(), "none")

	dev2, err := di.Device()
	require.NoError(t, err)
	assert.False(t, dev2.HasKey())
	assert.Equal(t, WORKMODE_LIGHTSPEED, dev2.Mode)
}

func TestLoadSetInfoDump(t *testing.T) {
	// dump as written right after pairing, no mode and counter yet
	dump := `{"Dongle":{"WPID":"iAg=","Serial":"4seU8g=="},"ConnectedDevices":[{"DeviceIndex":1,"DestinationID":76,"DeviceType":1,"RFAddr":"4seU8kw=","Key":"An13BzRlme7jiIAROE4ggw==","Name":"K400","DefaultReportInterval":8000000}]}`
	fn := filepath.Join(t.TempDir(), "dongle_e2_c7_94_f2.dat")
	require.NoError(t, os.WriteFile(fn, []byte(dump), 0600))

	si, err := LoadSetInfoFromFile(fn)
	require.NoError(t, err)
	di, found := si.Lookup(testAddr)
	require.True(t, found)
	assert.Equal(t, mustHex(t, capturedKeyboardKey), di.Key)
	assert.Equal(t, DEVICE_TYPE_KEYBOARD, di.DeviceType)

	_, err = LoadSetInfoFromFile(filepath.Join(t.TempDir(), "missing.dat"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(fn, []byte("{"), 0600))
	_, err = LoadSetInfoFromFile(fn)
	assert.Error(t, err)
}

func TestDeviceInfoInvalid(t *testing.T) {
	_, err := (&DeviceInfo{RFAddr: testAddr, Key: []byte{1, 2, 3}}).Device()
	assert.ErrorIs(t, err, ErrInvalidKeyLength)

	_, err = (&DeviceInfo{RFAddr: testAddr, Mode: "bluetooth"}).Device()
	assert.Error(t, err)
}
