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

// Package config selects the oscillator source and desired system clock at
// process start.
//
// The choice used to be the preserve of mutually exclusive build features;
// here it is data: a board profile, either built in or loaded from a YAML
// file, naming exactly one oscillator source and one target frequency.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/coreos/go-semver/semver"
	"gopkg.in/yaml.v3"

	"github.com/linuxtim/stm32f4xx-hal/rcc"
)

// SchemaVersion is the profile schema this package reads. Profiles with a
// different major version are refused.
const SchemaVersion = "1.0.0"

// Oscillator source names accepted in profiles.
const (
	SourceHSI = "hsi"
	SourceHSE = "hse"
)

// Profile is one board's clock configuration.
type Profile struct {
	// Schema is the semver of the profile format the document was written
	// against.
	Schema string `yaml:"schema"`
	// Board is a free-form board name, used only in diagnostics.
	Board string `yaml:"board"`
	// Oscillator selects the clock reference, "hsi" or "hse".
	Oscillator string `yaml:"oscillator"`
	// HSEHz is the board-rated external oscillator frequency. Required
	// when Oscillator is "hse", forbidden otherwise. The rating is
	// trusted as-is; see rcc.HSE.
	HSEHz uint32 `yaml:"hse_hz,omitempty"`
	// SysclkHz is the desired core clock.
	SysclkHz uint32 `yaml:"sysclk_hz"`
}

// Built-in profiles for boards the original bring-up was exercised on.
var builtin = map[string]*Profile{
	// Any STM32F4xx, no external parts required.
	"hsi16": {
		Schema:     SchemaVersion,
		Board:      "hsi16",
		Oscillator: SourceHSI,
		SysclkHz:   uint32(16 * rcc.MHz),
	},
	// ST NUCLEO-F411RE in factory configuration (UM1724 section 6.7.1).
	"nucleo-f411re": {
		Schema:     SchemaVersion,
		Board:      "nucleo-f411re",
		Oscillator: SourceHSE,
		HSEHz:      uint32(8 * rcc.MHz),
		SysclkHz:   uint32(16 * rcc.MHz),
	},
	// WeAct Studio STM32F4x1 MiniF4 with its 25 MHz crystal.
	"weact-minif4": {
		Schema:     SchemaVersion,
		Board:      "weact-minif4",
		Oscillator: SourceHSE,
		HSEHz:      uint32(25 * rcc.MHz),
		SysclkHz:   uint32(16 * rcc.MHz),
	},
}

// Builtin returns a copy of the named built-in profile.
func Builtin(name string) (*Profile, error) {
	p, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("unknown built-in profile %q (have %v)", name, BuiltinNames())
	}
	cp := *p
	return &cp, nil
}

// BuiltinNames lists the built-in profile names in stable order.
func BuiltinNames() []string {
	return []string{"hsi16", "nucleo-f411re", "weact-minif4"}
}

// Parse decodes and validates a YAML profile document.
func Parse(b []byte) (*Profile, error) {
	p := &Profile{}
	if err := yaml.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("could not parse profile (%v)", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads a profile from a YAML file.
func Load(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read profile (%v)", err)
	}
	return Parse(b)
}

// Validate checks the profile is complete, names exactly one oscillator
// source, and was written against a compatible schema.
func (p *Profile) Validate() error {
	if p.Schema == "" {
		return errors.New("invalid profile: missing schema version")
	}
	v, err := semver.NewVersion(p.Schema)
	if err != nil {
		return fmt.Errorf("invalid profile schema version %q (%v)", p.Schema, err)
	}
	if supported := semver.New(SchemaVersion); v.Major != supported.Major {
		return fmt.Errorf("unsupported profile schema %s (this build reads %s)", v, supported)
	}

	switch p.Oscillator {
	case SourceHSI:
		if p.HSEHz != 0 {
			return errors.New("invalid profile: hse_hz set but oscillator is hsi")
		}
	case SourceHSE:
		if p.HSEHz == 0 {
			return errors.New("invalid profile: oscillator is hse but hse_hz is missing")
		}
	default:
		return fmt.Errorf("invalid profile: unknown oscillator %q", p.Oscillator)
	}

	if p.SysclkHz == 0 {
		return errors.New("invalid profile: sysclk_hz is missing")
	}

	return nil
}

// Source returns the oscillator variant the profile selects.
func (p *Profile) Source() rcc.Oscillator {
	if p.Oscillator == SourceHSE {
		return rcc.HSE(rcc.Hertz(p.HSEHz))
	}
	return rcc.HSI()
}

// Sysclk returns the desired core clock.
func (p *Profile) Sysclk() rcc.Hertz {
	return rcc.Hertz(p.SysclkHz)
}
