// Package mpu6050 reads raw accelerometer and gyroscope samples from an
// InvenSense MPU-6050 over I2C.
//
//	d := mpu6050.New(bus)
//	if err := d.Configure(mpu6050.Config{}); err != nil { ... }
//	s, err := d.ReadSample()
//
// Values are returned unscaled (full-scale defaults: ±2 g, ±250 °/s).
// Tx MUST perform the register write followed by a repeated-start read.
package mpu6050

import (
	"errors"
	"time"

	"datalogger-go/types"

	"tinygo.org/x/drivers"
)

// I2C address with AD0 low.
const Address = 0x68

// Registers.
const (
	regAccelXOutH = 0x3B
	regGyroXOutH  = 0x43
	regPwrMgmt1   = 0x6B
	regWhoAmI     = 0x75

	pwrDeviceReset = 0x80
	pwrSleep       = 0x40

	whoAmIValue = 0x68
)

// Errors returned by the driver.
var (
	ErrBus        = errors.New("mpu6050: bus error")
	ErrNotPresent = errors.New("mpu6050: device not responding")
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x68 if zero.
	Address uint16
	// ResetDelay is the settle time after a device reset. Default 100 ms.
	ResetDelay time.Duration
	// WakeDelay is the settle time after clearing sleep. Default 10 ms.
	WakeDelay time.Duration
	// Sleep replaces time.Sleep (tests).
	Sleep func(time.Duration)
}

// Device wraps an I2C connection to an MPU-6050.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg Config
	reg [1]byte
	buf [6]byte
}

// New creates a Device. The I2C bus must already be configured; the device
// itself is not touched.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, Address: Address}
}

// Configure resets the device, waits for it to settle, clears the sleep
// bit so conversions start and checks the device identity.
func (d *Device) Configure(c Config) error {
	if c.Address != 0 {
		d.Address = c.Address
	}
	if c.ResetDelay <= 0 {
		c.ResetDelay = 100 * time.Millisecond
	}
	if c.WakeDelay <= 0 {
		c.WakeDelay = 10 * time.Millisecond
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	d.cfg = c

	if err := d.bus.Tx(d.Address, []byte{regPwrMgmt1, pwrDeviceReset}, nil); err != nil {
		return ErrNotPresent
	}
	d.cfg.Sleep(d.cfg.ResetDelay)
	if err := d.bus.Tx(d.Address, []byte{regPwrMgmt1, 0x00}, nil); err != nil {
		return ErrNotPresent
	}
	d.cfg.Sleep(d.cfg.WakeDelay)
	if !d.Connected() {
		return ErrNotPresent
	}
	return nil
}

// Connected reports whether WHO_AM_I answers with the expected identity.
func (d *Device) Connected() bool {
	var id [1]byte
	if err := d.bus.Tx(d.Address, []byte{regWhoAmI}, id[:]); err != nil {
		return false
	}
	return id[0] == whoAmIValue
}

// ReadSample reads the three accelerometer axes and then the three gyroscope
// axes. A failed transaction returns ErrBus and no sample, never stale data.
func (d *Device) ReadSample() (types.SensorSample, error) {
	var s types.SensorSample
	if err := d.read3(regAccelXOutH); err != nil {
		return s, err
	}
	s.AccelX, s.AccelY, s.AccelZ = be16(d.buf[0:]), be16(d.buf[2:]), be16(d.buf[4:])
	if err := d.read3(regGyroXOutH); err != nil {
		return types.SensorSample{}, err
	}
	s.GyroX, s.GyroY, s.GyroZ = be16(d.buf[0:]), be16(d.buf[2:]), be16(d.buf[4:])
	return s, nil
}

func (d *Device) read3(reg byte) error {
	d.reg[0] = reg
	if err := d.bus.Tx(d.Address, d.reg[:], d.buf[:]); err != nil {
		return ErrBus
	}
	return nil
}

func be16(b []byte) int16 { return int16(uint16(b[0])<<8 | uint16(b[1])) }
