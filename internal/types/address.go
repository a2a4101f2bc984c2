package types

import (
	"fmt"
	"strconv"
	"strings"
)

// GroupAddress is a 3-level KNX group address (main/middle/sub).
// Wire format: 5 bit main, 3 bit middle, 8 bit sub.
type GroupAddress uint16

func NewGroupAddress(main, middle, sub uint8) (GroupAddress, error) {
	if main > 31 {
		return 0, fmt.Errorf("main group out of range: %d", main)
	}
	if middle > 7 {
		return 0, fmt.Errorf("middle group out of range: %d", middle)
	}
	return GroupAddress(uint16(main)<<11 | uint16(middle)<<8 | uint16(sub)), nil
}

// ParseGroupAddress parses the "main/middle/sub" notation, e.g. "1/0/1".
func ParseGroupAddress(s string) (GroupAddress, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid group address %q: expected main/middle/sub", s)
	}

	fields := make([]uint8, 3)
	limits := []int{31, 7, 255}
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("invalid group address %q", s)
		}
		fields[i] = uint8(v)
	}

	return NewGroupAddress(fields[0], fields[1], fields[2])
}

func (a GroupAddress) Main() uint8 { return uint8(a >> 11) }

func (a GroupAddress) Middle() uint8 { return uint8(a>>8) & 0x07 }

func (a GroupAddress) Sub() uint8 { return uint8(a) }

func (a GroupAddress) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Main(), a.Middle(), a.Sub())
}
