// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"
)

// Gyro sensitivity at the power-on full scale of ±250°/s.
const gyroCountsPerDegree = 131.0

// gyroWeight is how much the integrated gyro is trusted over the accel tilt.
const gyroWeight = 0.98

type imuSource struct {
	imu  *mpu9250.MPU9250
	pose Pose
	last time.Time
	now  func() time.Time
}

// NewIMUSource initializes an MPU9250 over SPI and returns a Source that fuses
// accelerometer tilt with gyro rate into an orientation quaternion.
func NewIMUSource(spiDev, csPin string) (Source, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU SPI transport (%s): %w", spiDev, err)
	}

	imu, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("IMU new device: %w", err)
	}

	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("IMU init: %w", err)
	}

	// Calibration needs the headset at rest; a failure only costs accuracy.
	if err := imu.Calibrate(); err != nil {
		log.Printf("imu: WARNING: calibration failed: %v", err)
	} else {
		log.Printf("imu: calibration complete")
	}

	return &imuSource{imu: imu, now: time.Now}, nil
}

// Next reads accelerometer and gyroscope and advances the fused pose.
func (s *imuSource) Next() (Quaternion, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return Quaternion{}, fmt.Errorf("IMU accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return Quaternion{}, fmt.Errorf("IMU accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return Quaternion{}, fmt.Errorf("IMU accel Z: %w", err)
	}
	gx, err := s.imu.GetRotationX()
	if err != nil {
		return Quaternion{}, fmt.Errorf("IMU gyro X: %w", err)
	}
	gy, err := s.imu.GetRotationY()
	if err != nil {
		return Quaternion{}, fmt.Errorf("IMU gyro Y: %w", err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return Quaternion{}, fmt.Errorf("IMU gyro Z: %w", err)
	}

	t := s.now()
	dt := 0.0
	if !s.last.IsZero() {
		dt = t.Sub(s.last).Seconds()
	}
	s.last = t

	accel := ComputePoseFromAccel(float64(ax), float64(ay), float64(az))
	s.pose = fusePose(s.pose, accel, float64(gx), float64(gy), float64(gz), dt)

	return FromPose(s.pose), nil
}

// fusePose runs one complementary filter step. Gyro values are raw counts.
// With dt == 0 the accelerometer tilt is taken as is.
func fusePose(prev, accel Pose, gx, gy, gz, dt float64) Pose {
	if dt <= 0 {
		return Pose{Roll: accel.Roll, Pitch: accel.Pitch, Yaw: prev.Yaw}
	}

	rollRate := gx / gyroCountsPerDegree
	pitchRate := gy / gyroCountsPerDegree
	yawRate := gz / gyroCountsPerDegree

	return Pose{
		Roll:  gyroWeight*(prev.Roll+rollRate*dt) + (1-gyroWeight)*accel.Roll,
		Pitch: gyroWeight*(prev.Pitch+pitchRate*dt) + (1-gyroWeight)*accel.Pitch,
		Yaw:   prev.Yaw + yawRate*dt, // no magnetometer, yaw drifts
	}
}
