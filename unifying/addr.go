package unifying

import (
	"errors"
	"fmt"

	"github.com/mame82/logicrypt/helper"
)

var ErrInvalidAddress = errors.New("invalid Nrf24 address")

type Nrf24Addr []byte

func (a Nrf24Addr) String() (res string) {
	if len(a) == 0 {
		return
	}
	for i, o := range a {
		if i > 0 {
			res += ":"
		}
		res += fmt.Sprintf("%02x", o)
	}
	return
}

// Reverse returns a copy in over-the-air byte order, as expected by the research firmware.
func (a Nrf24Addr) Reverse() (res Nrf24Addr) {
	res = make([]byte, len(a))
	copy(res, a)
	for i := len(res)/2 - 1; i >= 0; i-- {
		opp := len(res) - 1 - i
		res[i], res[opp] = res[opp], res[i]
	}
	return
}

// DongleAddress is the address of the receiver the device is paired to (device index 0x00).
func (a Nrf24Addr) DongleAddress() (res Nrf24Addr) {
	res = make([]byte, len(a))
	copy(res, a)
	if len(res) > 0 {
		res[len(res)-1] = 0x00
	}
	return
}

// ParseNrf24Addr accepts 3 to 5 octets separated by ':' or '-'
func ParseNrf24Addr(s string) (Nrf24Addr, error) {
	raw, err := helper.ParseHexBytes(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(s) > 2 && s[2] != ':' && s[2] != '-' {
		return nil, ErrInvalidAddress
	}
	if n := len(raw); n < 3 || n > 5 {
		return nil, ErrInvalidAddress
	}
	return Nrf24Addr(raw), nil
}
