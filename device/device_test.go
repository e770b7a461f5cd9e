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

package device_test

import (
	"errors"
	"testing"

	"github.com/linuxtim/stm32f4xx-hal/device"
	"github.com/linuxtim/stm32f4xx-hal/sim"
)

func TestTakeOnce(t *testing.T) {
	chip := device.NewChip(sim.NewF411())

	p, err := chip.Take()
	if err != nil {
		t.Fatalf("first Take() failed: %v", err)
	}
	if p.RCC == nil || p.TPIU == nil || p.ITM == nil {
		t.Fatalf("Take() returned incomplete peripherals: %+v", p)
	}

	// The handle is consumed; there is no partial or degraded retake.
	for i := 0; i < 2; i++ {
		p2, err := chip.Take()
		if !errors.Is(err, device.ErrTaken) {
			t.Fatalf("Take() #%d = (%v, %v), want ErrTaken", i+2, p2, err)
		}
		if p2 != nil {
			t.Fatalf("Take() #%d returned a handle alongside the error", i+2)
		}
	}
}

func TestResetState(t *testing.T) {
	p, err := device.NewChip(sim.NewF411()).Take()
	if err != nil {
		t.Fatalf("Take() failed: %v", err)
	}

	// Out of reset the internal oscillator runs and drives sysclk.
	if !p.RCC.CR.HasBits(device.RCC_CR_HSION | device.RCC_CR_HSIRDY) {
		t.Errorf("RCC_CR = %#x, want HSION|HSIRDY set", p.RCC.CR.Get())
	}
	if sw := p.RCC.CFGR.Get() & device.RCC_CFGR_SW_Msk; sw != device.RCC_CFGR_SW_HSI {
		t.Errorf("RCC_CFGR SW = %02b, want HSI", sw)
	}
	if !p.ITM.TCR.HasBits(device.ITM_TCR_ITMENA) {
		t.Errorf("ITM_TCR = %#x, want ITMENA set", p.ITM.TCR.Get())
	}
}
