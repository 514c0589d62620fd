// Package sim provides a simulated two-wire bus with in-memory register
// devices. It is used by tests and by the CLI "sim" adapter.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/registers"
)

var ErrNoDevice = errors.New("no device acknowledged the address")

var _ registers.Bus = &Bus{}

// Fault makes parts of a transaction fail. A nil field means success.
type Fault struct {
	Acquire error
	// Select fails the first write of a session, the register pointer.
	Select error
	Write  error
	Read   error
	// PartialRead is the number of bytes delivered before Read fails.
	PartialRead int
}

// Device is a file of 256 registers. The first byte written in a session
// selects a register and moves the byte pointer to its first byte, further
// bytes are stored at the pointer and reads return bytes from the pointer.
// The pointer auto-increments and wraps around the end of the file.
type Device struct {
	mx      sync.Mutex
	regs    []byte
	width   int
	pointer int
	fault   Fault
}

type DeviceOption func(*Device)

// WithRegisterWidth makes every register n bytes wide, so that register
// reg+1 starts n bytes after register reg. Devices default to byte-wide
// registers.
func WithRegisterWidth(n int) DeviceOption {
	return func(d *Device) {
		if n > 0 {
			d.width = n
		}
	}
}

func newDevice(opts ...DeviceOption) *Device {
	d := &Device{width: 1}
	for _, opt := range opts {
		opt(d)
	}
	d.regs = make([]byte, 256*d.width)
	return d
}

func (d *Device) offset(reg byte) int {
	return int(reg) * d.width
}

// Set stores data starting at the first byte of register reg.
func (d *Device) Set(reg byte, data ...byte) {
	d.mx.Lock()
	defer d.mx.Unlock()
	at := d.offset(reg)
	for i, b := range data {
		d.regs[(at+i)%len(d.regs)] = b
	}
}

// Get returns n bytes starting at the first byte of register reg.
func (d *Device) Get(reg byte, n int) []byte {
	d.mx.Lock()
	defer d.mx.Unlock()
	at := d.offset(reg)
	res := make([]byte, n)
	for i := range res {
		res[i] = d.regs[(at+i)%len(d.regs)]
	}
	return res
}

func (d *Device) SetFault(f Fault) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.fault = f
}

func (d *Device) getFault() Fault {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.fault
}

// Transfer is one session as the bus saw it.
type Transfer struct {
	Address  uint16
	Written  []byte
	Read     []byte
	Released bool
}

// Bus is a simulated shared bus. Sessions are exclusive, like on real hardware.
type Bus struct {
	lock *registers.BusLock

	mx        sync.Mutex
	devices   map[uint16]*Device
	transfers []*Transfer
	acquired  int
	released  int
	open      int
	maxOpen   int
}

func NewBus() *Bus {
	return &Bus{
		lock:    registers.NewBusLock(),
		devices: make(map[uint16]*Device),
	}
}

// Attach connects a new device at address, replacing any previous one.
func (b *Bus) Attach(address uint16, opts ...DeviceOption) *Device {
	b.mx.Lock()
	defer b.mx.Unlock()
	dev := newDevice(opts...)
	b.devices[address] = dev
	return dev
}

func (b *Bus) Device(address uint16) (*Device, bool) {
	b.mx.Lock()
	defer b.mx.Unlock()
	dev, ok := b.devices[address]
	return dev, ok
}

func (b *Bus) Acquire(ctx context.Context, address uint16) (registers.Session, error) {
	dev, _ := b.Device(address)
	if dev != nil {
		if err := dev.getFault().Acquire; err != nil {
			return nil, err
		}
	}
	if err := b.lock.Lock(ctx); err != nil {
		return nil, fmt.Errorf("could not acquire simulated bus: %w", err)
	}
	t := &Transfer{Address: address}
	b.mx.Lock()
	b.acquired++
	b.open++
	if b.open > b.maxOpen {
		b.maxOpen = b.open
	}
	b.transfers = append(b.transfers, t)
	b.mx.Unlock()
	return &session{bus: b, dev: dev, transfer: t}, nil
}

// Acquired returns the number of sessions handed out so far.
func (b *Bus) Acquired() int {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.acquired
}

// Released returns the number of sessions released so far.
func (b *Bus) Released() int {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.released
}

// MaxOpen returns the highest number of sessions that were open at once.
func (b *Bus) MaxOpen() int {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.maxOpen
}

// Transfers returns a copy of the session log.
func (b *Bus) Transfers() []Transfer {
	b.mx.Lock()
	defer b.mx.Unlock()
	res := make([]Transfer, 0, len(b.transfers))
	for _, t := range b.transfers {
		c := *t
		c.Written = append([]byte(nil), t.Written...)
		c.Read = append([]byte(nil), t.Read...)
		res = append(res, c)
	}
	return res
}

// Reset clears counters and the session log. Devices stay attached.
func (b *Bus) Reset() {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.transfers = nil
	b.acquired = 0
	b.released = 0
	b.maxOpen = b.open
}

type session struct {
	bus      *Bus
	dev      *Device
	transfer *Transfer
	selected bool
	released bool
}

func (s *session) Write(ctx context.Context, buffer []byte) error {
	if s.released {
		return registers.ErrSessionReleased
	}
	if s.dev == nil {
		return ErrNoDevice
	}
	fault := s.dev.getFault()
	data := buffer
	if !s.selected && len(data) > 0 {
		if fault.Select != nil {
			return fault.Select
		}
		s.dev.mx.Lock()
		s.dev.pointer = s.dev.offset(data[0])
		s.dev.mx.Unlock()
		s.selected = true
		s.record(data[:1], nil)
		data = data[1:]
	}
	if len(data) == 0 {
		return nil
	}
	if fault.Write != nil {
		return fault.Write
	}
	s.dev.mx.Lock()
	for _, v := range data {
		s.dev.regs[s.dev.pointer] = v
		s.dev.pointer = (s.dev.pointer + 1) % len(s.dev.regs)
	}
	s.dev.mx.Unlock()
	s.record(data, nil)
	return nil
}

func (s *session) Read(ctx context.Context, buffer []byte) error {
	if s.released {
		return registers.ErrSessionReleased
	}
	if s.dev == nil {
		return ErrNoDevice
	}
	fault := s.dev.getFault()
	n := len(buffer)
	if fault.Read != nil && fault.PartialRead < n {
		n = fault.PartialRead
	}
	s.dev.mx.Lock()
	for i := 0; i < n; i++ {
		buffer[i] = s.dev.regs[s.dev.pointer]
		s.dev.pointer = (s.dev.pointer + 1) % len(s.dev.regs)
	}
	s.dev.mx.Unlock()
	s.record(nil, buffer[:n])
	if fault.Read != nil {
		return fault.Read
	}
	return nil
}

func (s *session) Release(ctx context.Context) error {
	if s.released {
		return registers.ErrSessionReleased
	}
	s.released = true
	s.bus.mx.Lock()
	s.bus.released++
	s.bus.open--
	s.transfer.Released = true
	s.bus.mx.Unlock()
	s.bus.lock.Unlock()
	return nil
}

func (s *session) record(w, r []byte) {
	s.bus.mx.Lock()
	defer s.bus.mx.Unlock()
	s.transfer.Written = append(s.transfer.Written, w...)
	s.transfer.Read = append(s.transfer.Read, r...)
}
