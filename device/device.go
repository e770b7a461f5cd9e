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

// Package device exposes the STM32F411 peripheral register blocks used by
// this HAL, behind a one-shot ownership handle.
//
// Register layout and reset values follow ST RM0383 for the RCC block and
// the ARMv7-M Architecture Reference Manual for the TPIU and ITM blocks.
package device

import (
	"errors"

	"github.com/linuxtim/stm32f4xx-hal/mmio"
)

// ErrTaken is returned by Chip.Take after the peripherals have already been
// handed out. There is no way to return them.
var ErrTaken = errors.New("peripherals already taken")

// Chip is the root of the peripheral address space. Exactly one Peripherals
// value can ever be obtained from it.
type Chip struct {
	bus   mmio.Bus
	taken bool
}

// NewChip wraps a register bus. On target the bus is the physical address
// space; off target it is a simulated register file.
func NewChip(bus mmio.Bus) *Chip {
	return &Chip{bus: bus}
}

// Take hands out the peripheral register blocks. The first call succeeds;
// every later call returns ErrTaken. Execution is single threaded at the
// point Take is meaningful (startup), so no locking is involved.
func (c *Chip) Take() (*Peripherals, error) {
	if c.taken {
		return nil, ErrTaken
	}
	c.taken = true

	return &Peripherals{
		RCC:  newRCC(c.bus),
		TPIU: newTPIU(c.bus),
		ITM:  newITM(c.bus),
	}, nil
}

// Peripherals gathers the register blocks this HAL drives.
type Peripherals struct {
	RCC  *RCC
	TPIU *TPIU
	ITM  *ITM
}
