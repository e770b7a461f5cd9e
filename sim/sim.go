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

// Package sim provides an in-memory STM32F411 register file so the HAL can
// run and be tested off target. It models just enough behaviour for the
// clock bring-up and trace reporting flow: oscillator and PLL ready flags
// follow their enable bits, the system clock switch status mirrors the
// switch request, and bytes written to ITM stimulus ports are captured as
// the stream an attached SWO receiver would see.
package sim

import (
	"bytes"

	"github.com/linuxtim/stm32f4xx-hal/device"
)

// Register reset values. RCC values are from RM0383; the TPIU comes up as a
// debug probe typically leaves it, with SWO in Manchester mode and the
// prescaler at reset. The ITM is enabled with stimulus port 0 unmasked.
const (
	resetRCC_CR      = device.RCC_CR_HSION | device.RCC_CR_HSIRDY
	resetRCC_PLLCFGR = 0x2400_3010
	resetTPIU_SPPR   = 0b01
	resetITM_TCR     = device.ITM_TCR_ITMENA
	resetITM_TER     = 0x1
)

// F411 is a simulated register file implementing mmio.Bus.
type F411 struct {
	regs map[uint32]uint32
	swo  bytes.Buffer

	hseBroken bool
}

// NewF411 returns a register file in its post-reset state.
func NewF411() *F411 {
	return &F411{
		regs: map[uint32]uint32{
			device.RCC_CR_Addr:      resetRCC_CR,
			device.RCC_PLLCFGR_Addr: resetRCC_PLLCFGR,
			device.TPIU_SPPR_Addr:   resetTPIU_SPPR,
			device.ITM_TCR_Addr:     resetITM_TCR,
			device.ITM_TER_Addr:     resetITM_TER,
		},
	}
}

// BreakHSE makes the external oscillator never report ready, as when no
// crystal is fitted or it fails to start.
func (f *F411) BreakHSE() {
	f.hseBroken = true
}

// SetTrace overrides the TPIU prescaler and pin protocol registers, standing
// in for whatever a debug probe configured before the firmware booted.
func (f *F411) SetTrace(acpr, sppr uint32) {
	f.regs[device.TPIU_ACPR_Addr] = acpr & device.TPIU_ACPR_SWOSCALER_Msk
	f.regs[device.TPIU_SPPR_Addr] = sppr & device.TPIU_SPPR_TXMODE_Msk
}

// SWOCapture returns the bytes emitted on the ITM stimulus ports so far.
func (f *F411) SWOCapture() []byte {
	return f.swo.Bytes()
}

func stimPort(addr uint32) bool {
	return addr >= device.ITM_STIM_Addr && addr < device.ITM_STIM_Addr+device.NumStim*4
}

// Read32 implements mmio.Bus.
func (f *F411) Read32(addr uint32) uint32 {
	if stimPort(addr) {
		// Stimulus reads return the FIFO status; the simulated FIFO
		// never fills.
		return device.ITM_STIM_FIFOREADY
	}
	return f.regs[addr]
}

// Write32 implements mmio.Bus.
func (f *F411) Write32(addr uint32, val uint32) {
	if stimPort(addr) {
		f.swo.WriteByte(byte(val))
		return
	}

	switch addr {
	case device.RCC_CR_Addr:
		val = f.clockReady(val)
	case device.RCC_CFGR_Addr:
		// The switch status field follows the requested switch.
		sw := (val >> uint32(device.RCC_CFGR_SW_Pos)) & device.RCC_CFGR_SW_Msk
		val &^= device.RCC_CFGR_SWS_Msk << uint32(device.RCC_CFGR_SWS_Pos)
		val |= sw << uint32(device.RCC_CFGR_SWS_Pos)
	}
	f.regs[addr] = val
}

// clockReady derives the oscillator and PLL ready flags from their enable
// bits, the way stable hardware settles.
func (f *F411) clockReady(cr uint32) uint32 {
	cr &^= device.RCC_CR_HSIRDY | device.RCC_CR_HSERDY | device.RCC_CR_PLLRDY

	if cr&device.RCC_CR_HSION != 0 {
		cr |= device.RCC_CR_HSIRDY
	}
	if cr&device.RCC_CR_HSEON != 0 && !f.hseBroken {
		cr |= device.RCC_CR_HSERDY
	}
	if cr&device.RCC_CR_PLLON != 0 {
		cr |= device.RCC_CR_PLLRDY
	}
	return cr
}
