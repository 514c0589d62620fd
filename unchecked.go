package registers

import (
	"context"
	"log/slog"
)

// Unchecked is a view of a Register that drops bus errors, for callers that
// poll registers and treat a bad sample like any other. Failed reads return
// the decode of the zero-seeded buffer, which may be partially overwritten.
type Unchecked struct {
	r *Register
}

func (r *Register) Unchecked() Unchecked {
	return Unchecked{r: r}
}

func uncheckedRead[T Unsigned](u Unchecked, reg byte) T {
	v, err := Read[T](context.Background(), u.r, reg)
	if err != nil {
		slog.Debug("register read failed", "device", u.r.address, "register", reg, "error", err)
	}
	return v
}

func uncheckedWrite[T Unsigned](u Unchecked, reg byte, v T) {
	err := Write(context.Background(), u.r, reg, v)
	if err != nil {
		slog.Debug("register write failed", "device", u.r.address, "register", reg, "error", err)
	}
}

func (u Unchecked) Read8(reg byte) uint8   { return uncheckedRead[uint8](u, reg) }
func (u Unchecked) Read16(reg byte) uint16 { return uncheckedRead[uint16](u, reg) }
func (u Unchecked) Read32(reg byte) uint32 { return uncheckedRead[uint32](u, reg) }
func (u Unchecked) Read64(reg byte) uint64 { return uncheckedRead[uint64](u, reg) }

func (u Unchecked) Write8(reg byte, v uint8)   { uncheckedWrite(u, reg, v) }
func (u Unchecked) Write16(reg byte, v uint16) { uncheckedWrite(u, reg, v) }
func (u Unchecked) Write32(reg byte, v uint32) { uncheckedWrite(u, reg, v) }
func (u Unchecked) Write64(reg byte, v uint64) { uncheckedWrite(u, reg, v) }

// ReadBytes reads count bytes from register reg into dest and reports
// whether both the register select and the data read succeeded.
func (u Unchecked) ReadBytes(reg byte, count int, dest []byte) bool {
	if count < 0 || len(dest) < count {
		slog.Debug("register read skipped", "device", u.r.address, "register", reg, "error", ErrShortBuffer)
		return false
	}
	err := u.r.ReadBytes(context.Background(), reg, dest[:count])
	if err != nil {
		slog.Debug("register read failed", "device", u.r.address, "register", reg, "error", err)
		return false
	}
	return true
}
