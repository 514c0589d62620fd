package console

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestHex(t *testing.T) {
	color.NoColor = true
	assert.Equal(t, "0x0bb8", Hex(3000, 2))
	assert.Equal(t, "0x00", Hex(0, 1))
	assert.Equal(t, "0x000003e8", Hex(1000, 4))
}

func TestFail(t *testing.T) {
	color.NoColor = true
	err := Fail("register read error", errors.New("no ack"))
	assert.Equal(t, 1, err.ExitCode())
	assert.Equal(t, "register read error: no ack", err.Error())
	assert.Equal(t, 2, Usage("expected %d args", 2).ExitCode())
}

func TestOutput(t *testing.T) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	PInfof(PictoStop, "write %s", "aborted")
	Warnf("careful")
	assert.Equal(t, PictoStop+" write aborted\n", out.String())
	assert.Equal(t, "WARN: careful\n", errOut.String())
	assert.Same(t, &out, Out())
}
