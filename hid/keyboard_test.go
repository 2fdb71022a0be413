package hid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseText(t *testing.T) {
	kps, err := ParseText("aZ1!\n")
	require.NoError(t, err)
	assert.Equal(t, []KeyPress{
		{Key: HID_KEY_A},
		{Mod: HID_MOD_KEY_LEFT_SHIFT, Key: HID_KEY_Z},
		{Key: HID_KEY_1},
		{Mod: HID_MOD_KEY_LEFT_SHIFT, Key: HID_KEY_1},
		{Key: HID_KEY_ENTER},
	}, kps)

	_, err = ParseText("ä")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestAsciiTransformRoundTrip(t *testing.T) {
	text := "The quick brown fox, 0-9 (and _ ~ \"quotes\"): done?\t|\\/<>[]{}'`;=+@#$%^&*"
	kps, err := ParseText(text)
	require.NoError(t, err)

	res := ""
	for _, kp := range kps {
		res += AsciiTransform(kp.Mod, kp.Key)
	}
	assert.Equal(t, text, res)

	assert.Equal(t, "A", AsciiTransform(HID_MOD_KEY_RIGHT_SHIFT, HID_KEY_A))
	assert.Equal(t, "", AsciiTransform(0, HID_KEY_F1))
}

func TestParseKeyCombo(t *testing.T) {
	kp, err := ParseKeyCombo("MOD_LEFT_GUI+KEY_R")
	require.NoError(t, err)
	assert.Equal(t, KeyPress{Mod: HID_MOD_KEY_LEFT_GUI, Key: HID_KEY_A + 17}, kp)
	assert.Equal(t, "MOD_LEFT_GUI+KEY_R", kp.String())

	kp, err = ParseKeyCombo("mod_left_control + mod_left_alt + key_delete")
	require.NoError(t, err)
	assert.Equal(t, HID_MOD_KEY_LEFT_CONTROL|HID_MOD_KEY_LEFT_ALT, kp.Mod)
	assert.Equal(t, HID_KEY_DELETE, kp.Key)

	kp, err = ParseKeyCombo("KEY_F12")
	require.NoError(t, err)
	assert.Equal(t, HID_KEY_F12, kp.Key)

	_, err = ParseKeyCombo("KEY_A+KEY_B")
	assert.Error(t, err)
	_, err = ParseKeyCombo("KEY_FOO")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "KEY_0", HID_KEY_0.String())
	assert.Equal(t, "KEY_Z", HID_KEY_Z.String())
	assert.Equal(t, "UNKNOWN_HID_CODE_FF", HIDKey(0xff).String())
	assert.Equal(t, "MOD_NONE", HIDMod(0).String())
	assert.Equal(t, "MOD_LEFT_SHIFT+MOD_RIGHT_GUI", (HID_MOD_KEY_LEFT_SHIFT | HID_MOD_KEY_RIGHT_GUI).String())
}
