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

package mmio

import "testing"

type mapBus map[uint32]uint32

func (m mapBus) Read32(addr uint32) uint32 {
	return m[addr]
}

func (m mapBus) Write32(addr uint32, val uint32) {
	m[addr] = val
}

func TestReg32Bits(t *testing.T) {
	bus := mapBus{}
	r := NewReg32(bus, 0x40)

	r.Set(0x0000_00f0)
	if got := r.Get(); got != 0xf0 {
		t.Fatalf("Get() = %#x, want 0xf0", got)
	}

	r.SetBits(0x0f)
	if got := r.Get(); got != 0xff {
		t.Fatalf("after SetBits, Get() = %#x, want 0xff", got)
	}
	if !r.HasBits(0x81) {
		t.Error("HasBits(0x81) = false, want true")
	}

	r.ClearBits(0xf0)
	if got := r.Get(); got != 0x0f {
		t.Fatalf("after ClearBits, Get() = %#x, want 0x0f", got)
	}
	if r.HasBits(0x10) {
		t.Error("HasBits(0x10) = true, want false")
	}
}

func TestReg32ReplaceBits(t *testing.T) {
	bus := mapBus{}
	r := NewReg32(bus, 0x44)

	r.Set(0xffff_ffff)
	r.ReplaceBits(0b10, 0b11, 16)
	if got := r.Get(); got != 0xfffe_ffff {
		t.Fatalf("ReplaceBits result = %#x, want 0xfffeffff", got)
	}
	if got := r.Addr(); got != 0x44 {
		t.Fatalf("Addr() = %#x, want 0x44", got)
	}
}
