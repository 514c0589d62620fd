package main

import (
	"encoding/hex"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/registers/cmd/registers/console"
	"github.com/mklimuk/registers/pkg/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// textRenderer is implemented by results with a human readable form.
type textRenderer interface {
	renderText(w io.Writer)
}

type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string) *printer {
	return &printer{format: format, w: console.Out()}
}

func (p *printer) print(v any) error {
	switch p.format {
	case config.FormatJSON:
		if err := json.NewEncoder(p.w).Encode(v); err != nil {
			return console.Fail("encoding error", err)
		}
		return nil
	case config.FormatText:
		if t, ok := v.(textRenderer); ok {
			t.renderText(p.w)
			return nil
		}
	}
	enc := yaml.NewEncoder(p.w)
	defer enc.Close()
	if err := enc.Encode(v); err != nil {
		return console.Fail("encoding error", err)
	}
	return nil
}

type registerValue struct {
	Device   string `yaml:"device" json:"device"`
	Register string `yaml:"register" json:"register"`
	Width    int    `yaml:"width" json:"width"`
	Value    uint64 `yaml:"value" json:"value"`
}

func newRegisterValue(address uint16, reg byte, width int, v uint64) registerValue {
	return registerValue{
		Device:   fmt.Sprintf("%#x", address),
		Register: fmt.Sprintf("%#x", reg),
		Width:    width,
		Value:    v,
	}
}

func (v registerValue) renderText(w io.Writer) {
	_, _ = fmt.Fprintf(w, "%s %s[%s] = %s (%d)\n", console.PictoPin, v.Device, v.Register, console.Hex(v.Value, v.Width), v.Value)
}

type registerDump struct {
	Device   string `yaml:"device" json:"device"`
	Register string `yaml:"register" json:"register"`
	Count    int    `yaml:"count" json:"count"`
	Data     string `yaml:"data" json:"data"`
	raw      []byte
}

func newRegisterDump(address uint16, reg byte, data []byte) registerDump {
	return registerDump{
		Device:   fmt.Sprintf("%#x", address),
		Register: fmt.Sprintf("%#x", reg),
		Count:    len(data),
		Data:     hex.EncodeToString(data),
		raw:      data,
	}
}

func (d registerDump) renderText(w io.Writer) {
	_, _ = fmt.Fprintf(w, "%s %s[%s] %d bytes\n", console.PictoNotebook, d.Device, d.Register, d.Count)
	_, _ = io.WriteString(w, hex.Dump(d.raw))
}
