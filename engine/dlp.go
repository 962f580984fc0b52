package engine

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// DLPIO8G drives the eight digital lines of a DLP-IO8-G box. Line n is raised
// with the ASCII digit n and lowered with the key below it on a QWERTY row.
type DLPIO8G struct {
	port  io.ReadWriteCloser
	state byte
}

var (
	dlpSet   = [8]byte{'1', '2', '3', '4', '5', '6', '7', '8'}
	dlpUnset = [8]byte{'Q', 'W', 'E', 'R', 'T', 'Y', 'U', 'I'}
)

func NewDLPIO8G(device string, baudrate int) (*DLPIO8G, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	if err := port.SetReadTimeout(500 * time.Millisecond); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", device, err)
	}

	d := &DLPIO8G{port: port}

	if !d.Ping() {
		port.Close()
		return nil, fmt.Errorf("device %s did not respond to ping", device)
	}

	// Binary mode
	if _, err := port.Write([]byte{0x5C}); err != nil {
		port.Close()
		return nil, fmt.Errorf("switch %s to binary mode: %w", device, err)
	}

	// Start from a known all-low state.
	d.state = 0xFF
	if err := d.Send(0); err != nil {
		port.Close()
		return nil, err
	}

	return d, nil
}

func (d *DLPIO8G) Close() error {
	if d.port == nil {
		return nil
	}
	return d.port.Close()
}

func (d *DLPIO8G) Ping() bool {
	if _, err := d.port.Write([]byte{0x27}); err != nil {
		return false
	}

	buf := make([]byte, 1)
	n, err := d.port.Read(buf)
	return err == nil && n == 1 && buf[0] == 'Q'
}

// Send puts code on the lines, bit i on line i+1. Only lines whose level
// changes are written.
func (d *DLPIO8G) Send(code byte) error {
	cmd := lineCommand(d.state, code)
	if len(cmd) == 0 {
		return nil
	}
	if _, err := d.port.Write(cmd); err != nil {
		return fmt.Errorf("dlp write %q: %w", cmd, err)
	}
	d.state = code
	return nil
}

func lineCommand(prev, next byte) []byte {
	var cmd []byte
	for i := 0; i < 8; i++ {
		bit := byte(1) << i
		switch {
		case next&bit != 0 && prev&bit == 0:
			cmd = append(cmd, dlpSet[i])
		case next&bit == 0 && prev&bit != 0:
			cmd = append(cmd, dlpUnset[i])
		}
	}
	return cmd
}
