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

// Package itm writes diagnostic bytes to ITM stimulus ports.
//
// The instrumentation trace macrocell streams stimulus writes out through
// the TPIU with very low overhead, which makes it useful for debugging
// timing-sensitive code where semihosting would distort the picture. Each
// port behaves as a byte sink; this package wraps one as an io.Writer.
package itm

import (
	"fmt"
	"io"

	"github.com/linuxtim/stm32f4xx-hal/device"
	"github.com/linuxtim/stm32f4xx-hal/mmio"
)

// Port returns a writer over the given stimulus port. It fails if the port
// number is out of range, if the ITM is disabled, or if the port is masked
// in the trace enable register, since writes would then vanish silently.
func Port(i *device.ITM, n int) (io.Writer, error) {
	if n < 0 || n >= device.NumStim {
		return nil, fmt.Errorf("stimulus port %d out of range [0, %d)", n, device.NumStim)
	}
	if !i.TCR.HasBits(device.ITM_TCR_ITMENA) {
		return nil, fmt.Errorf("ITM is disabled (TCR=%#x)", i.TCR.Get())
	}
	if !i.TER.HasBits(1 << uint(n)) {
		return nil, fmt.Errorf("stimulus port %d is masked (TER=%#x)", n, i.TER.Get())
	}
	return &stim{reg: i.STIM[n]}, nil
}

type stim struct {
	reg mmio.Reg32
}

// fifoSpin bounds the wait for stimulus FIFO space. The FIFO drains at SWO
// line rate, so this is generous rather than tight.
const fifoSpin = 1 << 20

// Write feeds p one byte at a time through the stimulus port, waiting for
// FIFO space before each byte.
func (s *stim) Write(p []byte) (int, error) {
	for n, b := range p {
		if !s.ready() {
			return n, fmt.Errorf("stimulus FIFO stuck after %d bytes", n)
		}
		s.reg.Set(uint32(b))
	}
	return len(p), nil
}

func (s *stim) ready() bool {
	for i := 0; i < fifoSpin; i++ {
		if s.reg.HasBits(device.ITM_STIM_FIFOREADY) {
			return true
		}
	}
	return false
}
