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

// Package mmio is the register access boundary between the HAL and whatever
// is standing in for silicon: a memory-mapped bus on target, or a simulated
// register file off target.
package mmio

// Bus provides 32-bit access to a peripheral address space.
type Bus interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, val uint32)
}

// Reg32 is a single 32-bit register cell bound to a bus address.
type Reg32 struct {
	bus  Bus
	addr uint32
}

// NewReg32 binds a register cell to the given bus address.
func NewReg32(bus Bus, addr uint32) Reg32 {
	return Reg32{bus: bus, addr: addr}
}

// Addr returns the address the register is bound to.
func (r Reg32) Addr() uint32 {
	return r.addr
}

// Get returns the current register value.
func (r Reg32) Get() uint32 {
	return r.bus.Read32(r.addr)
}

// Set overwrites the whole register.
func (r Reg32) Set(val uint32) {
	r.bus.Write32(r.addr, val)
}

// SetBits sets the bits in mask, leaving the rest untouched.
func (r Reg32) SetBits(mask uint32) {
	r.bus.Write32(r.addr, r.bus.Read32(r.addr)|mask)
}

// ClearBits clears the bits in mask, leaving the rest untouched.
func (r Reg32) ClearBits(mask uint32) {
	r.bus.Write32(r.addr, r.bus.Read32(r.addr)&^mask)
}

// HasBits reports whether all bits in mask are set.
func (r Reg32) HasBits(mask uint32) bool {
	return r.bus.Read32(r.addr)&mask == mask
}

// ReplaceBits writes val into the field identified by mask and pos, leaving
// the rest of the register untouched. The mask is given unshifted.
func (r Reg32) ReplaceBits(val uint32, mask uint32, pos uint8) {
	v := r.bus.Read32(r.addr)
	v &^= mask << pos
	v |= (val & mask) << pos
	r.bus.Write32(r.addr, v)
}
