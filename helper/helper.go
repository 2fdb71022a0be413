package helper

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidHex = errors.New("invalid hex string")

//Hex converter functions taken from net/parse.go

const big = 0xFFFFFF

func Xtoi(s string) (n int, i int, ok bool) {
	n = 0
	for i = 0; i < len(s); i++ {
		if '0' <= s[i] && s[i] <= '9' {
			n *= 16
			n += int(s[i] - '0')
		} else if 'a' <= s[i] && s[i] <= 'f' {
			n *= 16
			n += int(s[i]-'a') + 10
		} else if 'A' <= s[i] && s[i] <= 'F' {
			n *= 16
			n += int(s[i]-'A') + 10
		} else {
			break
		}
		if n >= big {
			return 0, i, false
		}
	}
	if i == 0 {
		return 0, i, false
	}
	return n, i, true
}

// Xtoi2 converts the first two hex digits of s, which have to be followed by e (or nothing).
func Xtoi2(s string, e byte) (byte, bool) {
	if len(s) < 2 {
		return 0, false
	}
	if len(s) > 2 && s[2] != e {
		return 0, false
	}
	n, ei, ok := Xtoi(s[:2])
	return byte(n), ok && ei == 2
}

func isSeparator(c byte) bool {
	return c == ':' || c == '-' || c == ' '
}

// ParseHexBytes parses octets either written contiguous ("027d77") or separated by one
// of ':', '-' or ' ' ("02:7d:77"). Mixed separators are rejected.
func ParseHexBytes(s string) (res []byte, err error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidHex, s)
	}

	if len(s) > 2 && isSeparator(s[2]) {
		sep := s[2]
		if (len(s)+1)%3 != 0 {
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidHex, s)
		}
		n := (len(s) + 1) / 3
		res = make([]byte, n)
		for x, i := 0, 0; i < n; i++ {
			var ok bool
			if res[i], ok = Xtoi2(s[x:], sep); !ok {
				return nil, fmt.Errorf("%w: '%s'", ErrInvalidHex, s)
			}
			x += 3
		}
		return res, nil
	}

	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrInvalidHex, len(s))
	}
	res = make([]byte, len(s)/2)
	for i := range res {
		var ok bool
		if res[i], ok = Xtoi2(s[2*i:2*i+2], 0); !ok {
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidHex, s)
		}
	}
	return res, nil
}
