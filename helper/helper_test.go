package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    []byte
		wantErr bool
	}{
		{in: "027d77", want: []byte{0x02, 0x7d, 0x77}},
		{in: "02:7d:77", want: []byte{0x02, 0x7d, 0x77}},
		{in: "02-7D-77", want: []byte{0x02, 0x7d, 0x77}},
		{in: "02 7d 77", want: []byte{0x02, 0x7d, 0x77}},
		{in: "  c9  ", want: []byte{0xc9}},
		{in: "027d7707af65170d3088d9117f99203d", want: []byte{0x02, 0x7d, 0x77, 0x07, 0xaf, 0x65, 0x17, 0x0d, 0x30, 0x88, 0xd9, 0x11, 0x7f, 0x99, 0x20, 0x3d}},
		{in: "", wantErr: true},
		{in: "0", wantErr: true},
		{in: "027d7", wantErr: true},
		{in: "02:7d-77", wantErr: true},
		{in: "02:7d:7", wantErr: true},
		{in: "02:7g:77", wantErr: true},
		{in: "zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexBytes(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidHex)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestXtoi2(t *testing.T) {
	b, ok := Xtoi2("c9:", ':')
	assert.True(t, ok)
	assert.Equal(t, byte(0xc9), b)

	_, ok = Xtoi2("c9-", ':')
	assert.False(t, ok)
	_, ok = Xtoi2("c", ':')
	assert.False(t, ok)
	_, ok = Xtoi2("x9", 0)
	assert.False(t, ok)
}
