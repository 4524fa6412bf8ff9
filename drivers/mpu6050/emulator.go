package mpu6050

import (
	"errors"
	"sync"

	"datalogger-go/types"
)

var errNack = errors.New("mpu6050 emulator: nack")

// Emulator is a register-level MPU-6050 that implements drivers.I2C. The
// simulator feeds it motion, tests use it to inject bus faults.
type Emulator struct {
	mu    sync.Mutex
	addr  uint16
	regs  [128]byte
	fail  int // remaining transactions to fail; -1 fails forever
	txs   int
	reset int
}

// NewEmulator returns a powered-on device: asleep until PWR_MGMT_1 is cleared.
func NewEmulator() *Emulator {
	e := &Emulator{addr: Address}
	e.powerOn()
	return e
}

func (e *Emulator) powerOn() {
	e.regs = [128]byte{}
	e.regs[regPwrMgmt1] = pwrSleep
	e.regs[regWhoAmI] = whoAmIValue
}

// Tx follows the usual pointer protocol: the first written byte selects a
// register, further written bytes are stored from there, reads continue from
// the pointer with auto-increment.
func (e *Emulator) Tx(addr uint16, w, r []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.txs++
	if addr != e.addr {
		return errNack
	}
	if e.fail != 0 {
		if e.fail > 0 {
			e.fail--
		}
		return errNack
	}
	if len(w) == 0 {
		return nil
	}
	ptr := int(w[0]) & 0x7F
	for _, b := range w[1:] {
		e.write(ptr, b)
		ptr = (ptr + 1) & 0x7F
	}
	for i := range r {
		r[i] = e.regs[ptr]
		ptr = (ptr + 1) & 0x7F
	}
	return nil
}

func (e *Emulator) write(reg int, b byte) {
	if reg == regPwrMgmt1 && b&pwrDeviceReset != 0 {
		e.reset++
		e.powerOn()
		return
	}
	e.regs[reg] = b
}

// SetSample loads the output registers. While the device sleeps the
// registers keep their previous contents, as on the real part.
func (e *Emulator) SetSample(s types.SensorSample) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.regs[regPwrMgmt1]&pwrSleep != 0 {
		return
	}
	put := func(reg int, v int16) {
		e.regs[reg] = byte(uint16(v) >> 8)
		e.regs[reg+1] = byte(v)
	}
	put(regAccelXOutH, s.AccelX)
	put(regAccelXOutH+2, s.AccelY)
	put(regAccelXOutH+4, s.AccelZ)
	put(regGyroXOutH, s.GyroX)
	put(regGyroXOutH+2, s.GyroY)
	put(regGyroXOutH+4, s.GyroZ)
}

// FailNext makes the next n transactions fail; n < 0 fails until cleared
// with FailNext(0).
func (e *Emulator) FailNext(n int) {
	e.mu.Lock()
	e.fail = n
	e.mu.Unlock()
}

// Awake reports whether the sleep bit is clear.
func (e *Emulator) Awake() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.regs[regPwrMgmt1]&pwrSleep == 0
}

// Resets counts device resets seen on the bus.
func (e *Emulator) Resets() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reset
}
