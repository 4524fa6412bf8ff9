package session

import (
	"datalogger-go/x/conv"
)

const (
	Prefix = "data_"
	Ext    = ".csv"

	// MaxID is the last 4-digit identifier; the next one wraps to 0.
	MaxID = 9999

	digits = 4
)

// Header is the first line of every session file.
const Header = "numero_amostra,accel_x,accel_y,accel_z,giro_x,giro_y,giro_z\n"

// FileName returns data_NNNN.csv for id.
func FileName(id int) string {
	b := make([]byte, 0, len(Prefix)+digits+len(Ext))
	b = append(b, Prefix...)
	b = conv.AppendPadded(b, uint64(id), digits)
	return string(append(b, Ext...))
}

// ParseID accepts exactly data_ + 4 decimal digits + .csv.
func ParseID(name string) (int, bool) {
	if len(name) != len(Prefix)+digits+len(Ext) ||
		name[:len(Prefix)] != Prefix ||
		name[len(Prefix)+digits:] != Ext {
		return 0, false
	}
	id := 0
	for _, c := range name[len(Prefix) : len(Prefix)+digits] {
		if c < '0' || c > '9' {
			return 0, false
		}
		id = id*10 + int(c-'0')
	}
	return id, true
}

// IsSessionFile reports whether name follows the session naming pattern.
func IsSessionFile(name string) bool {
	_, ok := ParseID(name)
	return ok
}

func nextID(id int) int { return (id + 1) % (MaxID + 1) }
