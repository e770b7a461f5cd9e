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

// Package rcc plans and commits the STM32F411 core clock tree.
//
// The flow is deliberately narrow: pick an oscillator source, pick a target
// system clock, Freeze. Freezing derives PLL multiplier/divider settings
// that approximate the target as closely as the synthesis granularity
// allows, commits them to the RCC block, and reports the frequency the core
// is actually running at. There is no way to re-plan afterwards.
package rcc

import (
	"errors"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/linuxtim/stm32f4xx-hal/device"
	"github.com/linuxtim/stm32f4xx-hal/mmio"
)

// Hertz is a clock frequency.
type Hertz uint32

// Frequency units.
const (
	Hz  Hertz = 1
	KHz       = 1000 * Hz
	MHz       = 1000 * KHz
)

// String renders the frequency in the largest unit that divides it.
func (h Hertz) String() string {
	switch {
	case h >= MHz && h%MHz == 0:
		return fmt.Sprintf("%d MHz", h/MHz)
	case h >= KHz && h%KHz == 0:
		return fmt.Sprintf("%d kHz", h/KHz)
	default:
		return fmt.Sprintf("%d Hz", h)
	}
}

// HSIFreq is the nominal frequency of the internal RC oscillator. All
// STM32F4xx parts have it and it needs no external components, but it is
// only factory trimmed: ±1% at 3.3V and 25°C, with a worst case of +5.5%/-8%
// across the full temperature range (ST DocID026289). That tolerance is
// informational; nothing in this package measures it.
const HSIFreq = 16 * MHz

var (
	// ErrFrozen is returned by Freeze once the clock tree has been
	// committed. There is no unfreeze.
	ErrFrozen = errors.New("clock tree already frozen")

	// ErrUnattainable is returned when no PLL setting inside the part's
	// synthesis constraints reaches the requested system clock.
	ErrUnattainable = errors.New("target system clock not attainable from this source")

	// ErrClockStartup is returned when an enabled clock source does not
	// report ready within the startup bound. On silicon a missing or dead
	// external crystal shows up this way, with nothing to be done about it.
	ErrClockStartup = errors.New("clock source failed to become ready")
)

type sourceKind uint8

const (
	sourceHSI sourceKind = iota
	sourceHSE
)

// Oscillator is the clock reference the PLL synthesises from: either the
// internal RC oscillator or a board-fitted external one.
type Oscillator struct {
	kind sourceKind
	freq Hertz
}

// HSI selects the internal 16 MHz RC oscillator. It is always present, so
// selecting it cannot fail at runtime.
func HSI() Oscillator {
	return Oscillator{kind: sourceHSI, freq: HSIFreq}
}

// HSE selects an external oscillator with the given board-rated frequency.
//
// The rating is trusted, not verified: if no oscillator is fitted the clock
// never stabilises, and if a faster part is fitted than declared the core
// ends up overclocked by the same ratio. Both are board configuration
// contracts, outside what this package can detect.
func HSE(rated Hertz) Oscillator {
	return Oscillator{kind: sourceHSE, freq: rated}
}

// External reports whether the source is a board-fitted oscillator.
func (o Oscillator) External() bool {
	return o.kind == sourceHSE
}

// Frequency returns the nominal (HSI) or rated (HSE) reference frequency.
func (o Oscillator) Frequency() Hertz {
	return o.freq
}

func (o Oscillator) String() string {
	if o.kind == sourceHSE {
		return fmt.Sprintf("HSE (%s rated)", o.freq)
	}
	return fmt.Sprintf("HSI (%s nominal)", o.freq)
}

// Config accumulates the clock plan for a one-shot Freeze.
type Config struct {
	rcc    *device.RCC
	source Oscillator
	target Hertz
	frozen bool
}

// Configure starts a clock plan on the owned RCC block. The default plan is
// the reset state made explicit: HSI as source, sysclk at the HSI frequency.
func Configure(r *device.RCC) *Config {
	return &Config{
		rcc:    r,
		source: HSI(),
		target: HSIFreq,
	}
}

// UseHSE switches the plan's reference to an external oscillator of the
// given rated frequency. See HSE for what "rated" does and does not promise.
func (c *Config) UseHSE(rated Hertz) *Config {
	c.source = HSE(rated)
	return c
}

// Sysclk sets the desired core clock. The frequency actually achieved may be
// coarser; Freeze reports it.
func (c *Config) Sysclk(target Hertz) *Config {
	c.target = target
	return c
}

// Source returns the reference oscillator currently planned.
func (c *Config) Source() Oscillator {
	return c.source
}

// Target returns the desired system clock currently planned.
func (c *Config) Target() Hertz {
	return c.target
}

// Freeze commits the plan to the RCC block and returns the resulting clock
// tree. It can succeed at most once per Config; the commit is irreversible
// for the life of the program.
func (c *Config) Freeze() (Clocks, error) {
	if c.frozen {
		return Clocks{}, ErrFrozen
	}

	p, err := plan(c.source, c.target)
	if err != nil {
		return Clocks{}, err
	}

	if c.source.External() {
		c.rcc.CR.SetBits(device.RCC_CR_HSEON)
		// An absent or dead crystal keeps HSERDY clear; the bound below
		// matches the vendor startup timeout. Whether the crystal runs
		// at its rated frequency is not checked here or anywhere else.
		if err := waitBits(c.rcc.CR, device.RCC_CR_HSERDY); err != nil {
			return Clocks{}, fmt.Errorf("HSE %s: %w", c.source.Frequency(), err)
		}
	}

	if p.usePLL {
		cfg := p.m << uint32(device.RCC_PLLCFGR_PLLM_Pos)
		cfg |= p.n << uint32(device.RCC_PLLCFGR_PLLN_Pos)
		cfg |= (p.p/2 - 1) << uint32(device.RCC_PLLCFGR_PLLP_Pos)
		cfg |= p.q << uint32(device.RCC_PLLCFGR_PLLQ_Pos)
		if c.source.External() {
			cfg |= device.RCC_PLLCFGR_PLLSRC
		}
		c.rcc.PLLCFGR.Set(cfg)

		c.rcc.CR.SetBits(device.RCC_CR_PLLON)
		if err := waitBits(c.rcc.CR, device.RCC_CR_PLLRDY); err != nil {
			return Clocks{}, fmt.Errorf("PLL: %w", err)
		}

		klog.V(1).Infof("PLL locked: %s /%d *%d /%d -> %s",
			c.source.Frequency(), p.m, p.n, p.p, p.achieved)
	}

	sw := device.RCC_CFGR_SW_HSI
	switch {
	case p.usePLL:
		sw = device.RCC_CFGR_SW_PLL
	case c.source.External():
		sw = device.RCC_CFGR_SW_HSE
	}
	c.rcc.CFGR.ReplaceBits(sw, device.RCC_CFGR_SW_Msk, device.RCC_CFGR_SW_Pos)
	if err := waitSwitch(c.rcc.CFGR, sw); err != nil {
		return Clocks{}, err
	}

	c.frozen = true
	klog.V(1).Infof("clock tree frozen: %s from %s", p.achieved, c.source)

	return Clocks{sysclk: p.achieved}, nil
}

// startupBound is how many ready-flag polls a clock source gets before it is
// declared dead, per the usual vendor HSE startup timeout.
const startupBound = 0x0500

func waitBits(r mmio.Reg32, mask uint32) error {
	for i := 0; i < startupBound; i++ {
		if r.HasBits(mask) {
			return nil
		}
	}
	return ErrClockStartup
}

func waitSwitch(cfgr mmio.Reg32, sw uint32) error {
	want := sw << uint32(device.RCC_CFGR_SWS_Pos)
	mask := device.RCC_CFGR_SWS_Msk << uint32(device.RCC_CFGR_SWS_Pos)
	for i := 0; i < startupBound; i++ {
		if cfgr.Get()&mask == want {
			return nil
		}
	}
	return fmt.Errorf("system clock switch to %02b did not take: %w", sw, ErrClockStartup)
}

// Clocks is the committed clock tree. It is handed out by Freeze only, so
// holding one is proof the commit happened.
type Clocks struct {
	sysclk Hertz
}

// Sysclk returns the frequency the core is running at. This is the achieved
// value, not the requested one, and is the ground truth for everything
// derived from the core clock.
func (c Clocks) Sysclk() Hertz {
	return c.sysclk
}
