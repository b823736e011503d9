// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"errors"
	"math"
)

// ErrNoData is returned by push-fed sources before the first sample arrived.
var ErrNoData = errors.New("orientation: no data yet")

// Pose is orientation in degrees, used by tilt-only sensors and NMEA attitude.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Quaternion is a unit rotation in sensor order [x, y, z, w].
type Quaternion [4]float64

// Identity is the neutral rotation.
var Identity = Quaternion{0, 0, 0, 1}

// X, Y, Z and W name the components.
func (q Quaternion) X() float64 { return q[0] }
func (q Quaternion) Y() float64 { return q[1] }
func (q Quaternion) Z() float64 { return q[2] }
func (q Quaternion) W() float64 { return q[3] }

// Axis returns component i. Out of range indexes read as 0.
func (q Quaternion) Axis(i int) float64 {
	if i < 0 || i > 3 {
		return 0
	}
	return q[i]
}

// Normalize scales q to unit length. A zero quaternion becomes Identity.
func (q Quaternion) Normalize() Quaternion {
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if n == 0 {
		return Identity
	}
	return Quaternion{q[0] / n, q[1] / n, q[2] / n, q[3] / n}
}

// Source is anything that can provide orientation over time.
type Source interface {
	Next() (Quaternion, error)
}

// FromPose converts roll/pitch/yaw (degrees, ZYX order) to a quaternion.
func FromPose(p Pose) Quaternion {
	r := p.Roll * math.Pi / 360.0 // half angles
	pi := p.Pitch * math.Pi / 360.0
	y := p.Yaw * math.Pi / 360.0

	cr, sr := math.Cos(r), math.Sin(r)
	cp, sp := math.Cos(pi), math.Sin(pi)
	cy, sy := math.Cos(y), math.Sin(y)

	return Quaternion{
		sr*cp*cy - cr*sp*sy,
		cr*sp*cy + sr*cp*sy,
		cr*cp*sy - sr*sp*cy,
		cr*cp*cy + sr*sp*sy,
	}
}

// ToPose converts a quaternion back to roll/pitch/yaw in degrees.
func ToPose(q Quaternion) Pose {
	x, y, z, w := q[0], q[1], q[2], q[3]

	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sinp := 2 * (w*y - z*x)
	var pitch float64
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return Pose{
		Roll:  roll * 180.0 / math.Pi,
		Pitch: pitch * 180.0 / math.Pi,
		Yaw:   yaw * 180.0 / math.Pi,
	}
}

// ComputePoseFromAccel computes roll and pitch from accelerometer data only.
// Yaw is set to 0.
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}
