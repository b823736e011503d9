// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
)

// ErrUnsupportedLine is returned for lines that carry no orientation.
var ErrUnsupportedLine = errors.New("orientation: unsupported line")

// SerialSource reads attitude lines from a serial sensor. Two formats are
// understood:
//
//	$PRDID,<pitch>,<roll>,<heading>*CS   NMEA attitude, degrees
//	Q,<x>,<y>,<z>,<w>                    raw quaternion
type SerialSource struct {
	port io.ReadWriteCloser

	mu     sync.Mutex
	latest Quaternion
	have   bool
	err    error
}

// NewSerialSource opens the port and starts the line reader.
func NewSerialSource(portName string, baudRate int) (*SerialSource, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	log.Printf("serial: port opened on %s at %d baud", portName, baudRate)

	s := newSerialSource(port)
	go s.readLoop()
	return s, nil
}

func newSerialSource(port io.ReadWriteCloser) *SerialSource {
	return &SerialSource{port: port}
}

// Next returns the most recent quaternion. Once the port failed the read
// error is returned forever.
func (s *SerialSource) Next() (Quaternion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return Quaternion{}, s.err
	}
	if !s.have {
		return Quaternion{}, ErrNoData
	}
	return s.latest, nil
}

// Close closes the port, which also ends the reader.
func (s *SerialSource) Close() error {
	return s.port.Close()
}

func (s *SerialSource) readLoop() {
	reader := bufio.NewReader(s.port)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("serial: read error: %v", err)
			s.mu.Lock()
			s.err = fmt.Errorf("serial read: %w", err)
			s.mu.Unlock()
			return
		}

		q, err := ParseLine(line)
		if err != nil {
			// noisy or partial lines are expected right after opening the port
			continue
		}

		s.mu.Lock()
		s.latest = q
		s.have = true
		s.mu.Unlock()
	}
}

// ParseLine decodes one serial line into a quaternion.
func ParseLine(line string) (Quaternion, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Quaternion{}, ErrUnsupportedLine
	}

	if strings.HasPrefix(line, "$") {
		sentence, err := nmea.Parse(line)
		if err != nil {
			return Quaternion{}, fmt.Errorf("nmea: %w", err)
		}

		switch m := sentence.(type) {
		case nmea.PRDID:
			return FromPose(Pose{Roll: m.Roll, Pitch: m.Pitch, Yaw: m.Heading}), nil
		default:
			return Quaternion{}, fmt.Errorf("%w: sentence %s", ErrUnsupportedLine, sentence.DataType())
		}
	}

	fields := strings.Split(line, ",")
	if len(fields) != 5 || !strings.EqualFold(fields[0], "Q") {
		return Quaternion{}, ErrUnsupportedLine
	}

	var q Quaternion
	for i := range q {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
		if err != nil {
			return Quaternion{}, fmt.Errorf("quaternion field %d: %w", i, err)
		}
		q[i] = v
	}
	return q.Normalize(), nil
}
