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

package device

import "github.com/linuxtim/stm32f4xx-hal/mmio"

// RCC register block, RM0383 section 6.3.
const (
	RCCBase uint32 = 0x4002_3800

	RCC_CR_Addr      = RCCBase + 0x00
	RCC_PLLCFGR_Addr = RCCBase + 0x04
	RCC_CFGR_Addr    = RCCBase + 0x08
)

// RCC_CR bits.
const (
	RCC_CR_HSION  uint32 = 1 << 0
	RCC_CR_HSIRDY uint32 = 1 << 1
	RCC_CR_HSEON  uint32 = 1 << 16
	RCC_CR_HSERDY uint32 = 1 << 17
	RCC_CR_PLLON  uint32 = 1 << 24
	RCC_CR_PLLRDY uint32 = 1 << 25
)

// RCC_PLLCFGR fields.
const (
	RCC_PLLCFGR_PLLM_Pos uint8  = 0
	RCC_PLLCFGR_PLLM_Msk uint32 = 0x3f
	RCC_PLLCFGR_PLLN_Pos uint8  = 6
	RCC_PLLCFGR_PLLN_Msk uint32 = 0x1ff
	RCC_PLLCFGR_PLLP_Pos uint8  = 16
	RCC_PLLCFGR_PLLP_Msk uint32 = 0x3
	RCC_PLLCFGR_PLLSRC   uint32 = 1 << 22
	RCC_PLLCFGR_PLLQ_Pos uint8  = 24
	RCC_PLLCFGR_PLLQ_Msk uint32 = 0xf
)

// RCC_CFGR system clock switch field values.
const (
	RCC_CFGR_SW_Pos  uint8  = 0
	RCC_CFGR_SW_Msk  uint32 = 0x3
	RCC_CFGR_SWS_Pos uint8  = 2
	RCC_CFGR_SWS_Msk uint32 = 0x3

	RCC_CFGR_SW_HSI uint32 = 0b00
	RCC_CFGR_SW_HSE uint32 = 0b01
	RCC_CFGR_SW_PLL uint32 = 0b10
)

// RCC is the reset and clock control block.
type RCC struct {
	CR      mmio.Reg32
	PLLCFGR mmio.Reg32
	CFGR    mmio.Reg32
}

func newRCC(bus mmio.Bus) *RCC {
	return &RCC{
		CR:      mmio.NewReg32(bus, RCC_CR_Addr),
		PLLCFGR: mmio.NewReg32(bus, RCC_PLLCFGR_Addr),
		CFGR:    mmio.NewReg32(bus, RCC_CFGR_Addr),
	}
}
