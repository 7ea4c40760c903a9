//go:build rtmidi

package abletonlink

/*
#cgo pkg-config: rtmidi
#include <rtmidi_c.h>
#include <stdlib.h>
*/
import "C"
import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"unsafe"
)

// ErrNoSuchPort is returned for a port number the backend does not list.
var ErrNoSuchPort = errors.New("no such MIDI output port")

// MidiOut represents an RtMidi output device
type MidiOut struct {
	ptr C.RtMidiOutPtr
}

// NewMidiOut creates a new MIDI output
func NewMidiOut() (*MidiOut, error) {
	ptr := C.rtmidi_out_create_default()
	if ptr == nil {
		return nil, fmt.Errorf("failed to create MIDI output")
	}

	out := &MidiOut{ptr: ptr}
	runtime.SetFinalizer(out, (*MidiOut).Close)
	return out, nil
}

// OpenVirtualPort opens a virtual MIDI output port
func (out *MidiOut) OpenVirtualPort(name string) error {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	C.rtmidi_open_virtual_port(out.ptr, cname)

	if !out.ptr.ok {
		return fmt.Errorf("failed to open virtual output port '%s': %s", name, C.GoString(out.ptr.msg))
	}
	return nil
}

// OpenPort opens a physical MIDI output port by number
func (out *MidiOut) OpenPort(portNumber uint, portName string) error {
	cname := C.CString(portName)
	defer C.free(unsafe.Pointer(cname))

	C.rtmidi_open_port(out.ptr, C.uint(portNumber), cname)

	if !out.ptr.ok {
		return fmt.Errorf("failed to open output port %d '%s': %s", portNumber, portName, C.GoString(out.ptr.msg))
	}
	return nil
}

// PortCount returns how many output ports the backend currently lists.
func (out *MidiOut) PortCount() int {
	return int(C.rtmidi_get_port_count(out.ptr))
}

// PortName looks up the name of output port n.
func (out *MidiOut) PortName(n int) (string, error) {
	if n < 0 || n >= out.PortCount() {
		return "", fmt.Errorf("%w: %d", ErrNoSuchPort, n)
	}

	var size C.int
	if C.rtmidi_get_port_name(out.ptr, C.uint(n), nil, &size) != 0 || size <= 0 {
		return "", fmt.Errorf("failed to query name of port %d: %s", n, C.GoString(out.ptr.msg))
	}
	name := make([]byte, int(size)+1)
	if C.rtmidi_get_port_name(out.ptr, C.uint(n), (*C.char)(unsafe.Pointer(&name[0])), &size) != 0 {
		return "", fmt.Errorf("failed to read name of port %d: %s", n, C.GoString(out.ptr.msg))
	}
	return string(bytes.TrimRight(name, "\x00")), nil
}

// SendMessage sends a MIDI message
func (out *MidiOut) SendMessage(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	C.rtmidi_out_send_message(out.ptr, (*C.uchar)(unsafe.Pointer(&data[0])), C.int(len(data)))

	if !out.ptr.ok {
		return fmt.Errorf("failed to send MIDI message: %s", C.GoString(out.ptr.msg))
	}
	return nil
}

// Close closes the MIDI output port
func (out *MidiOut) Close() {
	if out.ptr != nil {
		C.rtmidi_out_free(out.ptr)
		out.ptr = nil
		runtime.SetFinalizer(out, nil)
	}
}

// MidiPort is an output port a click sink can open.
type MidiPort struct {
	Number int
	Name   string
}

// OutputPorts lists the MIDI output ports available for clicks.
func OutputPorts() ([]MidiPort, error) {
	out, err := NewMidiOut()
	if err != nil {
		return nil, err
	}
	defer out.Close()

	n := out.PortCount()
	ports := make([]MidiPort, 0, n)
	for i := 0; i < n; i++ {
		name, err := out.PortName(i)
		if err != nil {
			return nil, err
		}
		ports = append(ports, MidiPort{Number: i, Name: name})
	}
	return ports, nil
}
