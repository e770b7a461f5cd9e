// Copyright 2024 The stm32f4xx-hal authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tpiu reports how the trace port interface unit is configured and
// what SWO baud rate results from it.
//
// The TPIU streams trace data (ITM stimulus writes among it) off chip. In
// the asynchronous modes the line rate is the core clock divided by the
// prescaler in TPIU_ACPR, so an external receiver can only decode the stream
// if it knows both the achieved core clock and the prescaler. This package
// ties the two together; it never writes the TPIU, which in this flow is
// configured by the debug probe. Target-side configuration of the TPIU is a
// known missing capability.
package tpiu

import (
	"errors"
	"fmt"

	"github.com/linuxtim/stm32f4xx-hal/device"
	"github.com/linuxtim/stm32f4xx-hal/rcc"
)

// ErrZeroPrescaler is returned when TPIU_ACPR reads back zero. A zero
// prescaler leaves the SWO rate undefined, so it is refused outright rather
// than clamped to something plausible.
var ErrZeroPrescaler = errors.New("TPIU prescaler is zero, SWO baud rate undefined")

// PinProtocol is the TPIU_SPPR[1:0] selected pin protocol.
type PinProtocol uint8

// The four architectural pin protocol encodings, ARMv7-M ARM C1.10.4.
const (
	// Parallel is the synchronous multi-pin trace port, e.g. via JTAG.
	Parallel PinProtocol = 0b00
	// Manchester is SWO with a self-clocking biphase line code. Tolerates
	// roughly ±10% baud mismatch between sender and receiver.
	Manchester PinProtocol = 0b01
	// NRZ is SWO with UART-style fixed framing. Widely supported, but
	// sender and receiver baud must agree to roughly ±5%.
	NRZ PinProtocol = 0b10
	// Reserved is the architecturally undefined encoding. It is reported
	// as such, never folded into one of the defined modes.
	Reserved PinProtocol = 0b11
)

// DecodePinProtocol classifies a raw SPPR value. Every 2-bit value maps to
// one of the four PinProtocol constants; nothing is left over.
func DecodePinProtocol(sppr uint32) PinProtocol {
	return PinProtocol(sppr & device.TPIU_SPPR_TXMODE_Msk)
}

func (p PinProtocol) String() string {
	switch p {
	case Parallel:
		return "parallel trace port"
	case Manchester:
		return "SWO, Manchester encoding"
	case NRZ:
		return "SWO, NRZ/UART encoding"
	case Reserved:
		return "reserved (undefined) pin protocol"
	}
	return fmt.Sprintf("invalid pin protocol %#x", uint8(p))
}

// Asynchronous reports whether the protocol drives the single SWO pin.
func (p PinProtocol) Asynchronous() bool {
	return p == Manchester || p == NRZ
}

// SWOBaud derives the SWO line rate from the achieved core clock and the
// ACPR prescaler. The division truncates, matching what the hardware
// divider does. A zero prescaler is refused before any division happens.
func SWOBaud(sysclk rcc.Hertz, prescaler uint32) (rcc.Hertz, error) {
	if prescaler == 0 {
		return 0, ErrZeroPrescaler
	}
	return sysclk / rcc.Hertz(prescaler), nil
}

// Report is one observation of the trace link: the raw registers, the
// decoded protocol and the SWO rate derived from the committed clock tree.
type Report struct {
	ACPR     uint32
	SPPR     uint32
	Protocol PinProtocol
	SWOBaud  rcc.Hertz
}

// Inspect reads the TPIU configuration and derives the SWO baud rate from
// the committed clock tree. Requiring rcc.Clocks rather than a bare
// frequency keeps the rate math tied to the value the hardware actually
// achieved.
//
// On ErrZeroPrescaler the returned report still carries the raw register
// values and decoded protocol, but no baud rate.
func Inspect(t *device.TPIU, clocks rcc.Clocks) (Report, error) {
	r := Report{
		ACPR: t.ACPR.Get() & device.TPIU_ACPR_SWOSCALER_Msk,
		SPPR: t.SPPR.Get() & device.TPIU_SPPR_TXMODE_Msk,
	}
	r.Protocol = DecodePinProtocol(r.SPPR)

	baud, err := SWOBaud(clocks.Sysclk(), r.ACPR)
	if err != nil {
		return r, err
	}
	r.SWOBaud = baud

	return r, nil
}

func (r Report) String() string {
	if r.SWOBaud == 0 {
		return fmt.Sprintf("acpr=%d sppr=%02b (%s) baud=undefined", r.ACPR, r.SPPR, r.Protocol)
	}
	return fmt.Sprintf("acpr=%d sppr=%02b (%s) baud=%s", r.ACPR, r.SPPR, r.Protocol, r.SWOBaud)
}
