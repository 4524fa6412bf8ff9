//go:build !rp2040 && !rp2350

package main

import (
	"context"
	"math"
	"time"

	"datalogger-go/drivers/mpu6050"
	"datalogger-go/types"
)

// motion feeds the emulated IMU a slow swing: gravity on Z tilting into X
// and a matching rotation about Y.
func motion(ctx context.Context, emu *mpu6050.Emulator, period time.Duration) {
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	t := time.NewTicker(period)
	defer t.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			emu.SetSample(swing(now.Sub(start)))
		}
	}
}

func swing(el time.Duration) types.SensorSample {
	const (
		oneG     = 16384
		degS     = 131
		periodS  = 4.0
		maxAngle = math.Pi / 6
	)
	ph := 2 * math.Pi * el.Seconds() / periodS
	angle := maxAngle * math.Sin(ph)
	rate := maxAngle * 2 * math.Pi / periodS * math.Cos(ph) * 180 / math.Pi
	return types.SensorSample{
		AccelX: int16(oneG * math.Sin(angle)),
		AccelY: int16(200 * math.Sin(3*ph)),
		AccelZ: int16(oneG * math.Cos(angle)),
		GyroY:  int16(degS * rate),
		GyroX:  int16(20 * math.Cos(5*ph)),
	}
}
