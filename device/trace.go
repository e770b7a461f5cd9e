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

// TPIU register block, ARMv7-M ARM section C1.10.
const (
	TPIUBase uint32 = 0xe004_0000

	TPIU_SSPSR_Addr = TPIUBase + 0x000
	TPIU_ACPR_Addr  = TPIUBase + 0x010
	TPIU_SPPR_Addr  = TPIUBase + 0x0f0
)

// TPIU field widths. ACPR holds the SWO prescaler in its low 16 bits, SPPR
// the selected pin protocol in its low 2 bits.
const (
	TPIU_ACPR_SWOSCALER_Msk uint32 = 0xffff
	TPIU_SPPR_TXMODE_Msk    uint32 = 0x3
)

// TPIU is the trace port interface unit.
type TPIU struct {
	SSPSR mmio.Reg32
	ACPR  mmio.Reg32
	SPPR  mmio.Reg32
}

func newTPIU(bus mmio.Bus) *TPIU {
	return &TPIU{
		SSPSR: mmio.NewReg32(bus, TPIU_SSPSR_Addr),
		ACPR:  mmio.NewReg32(bus, TPIU_ACPR_Addr),
		SPPR:  mmio.NewReg32(bus, TPIU_SPPR_Addr),
	}
}

// ITM register block, ARMv7-M ARM section C1.7.
const (
	ITMBase uint32 = 0xe000_0000

	ITM_STIM_Addr = ITMBase + 0x000
	ITM_TER_Addr  = ITMBase + 0xe00
	ITM_TCR_Addr  = ITMBase + 0xe80
)

// NumStim is the number of ITM stimulus ports.
const NumStim = 32

// ITM stimulus/control bits.
const (
	ITM_STIM_FIFOREADY uint32 = 1 << 0
	ITM_TCR_ITMENA     uint32 = 1 << 0
)

// ITM is the instrumentation trace macrocell.
type ITM struct {
	STIM [NumStim]mmio.Reg32
	TER  mmio.Reg32
	TCR  mmio.Reg32
}

func newITM(bus mmio.Bus) *ITM {
	itm := &ITM{
		TER: mmio.NewReg32(bus, ITM_TER_Addr),
		TCR: mmio.NewReg32(bus, ITM_TCR_Addr),
	}
	for i := range itm.STIM {
		itm.STIM[i] = mmio.NewReg32(bus, ITM_STIM_Addr+uint32(i)*4)
	}
	return itm
}
