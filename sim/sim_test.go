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

package sim_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/linuxtim/stm32f4xx-hal/device"
	"github.com/linuxtim/stm32f4xx-hal/itm"
	"github.com/linuxtim/stm32f4xx-hal/rcc"
	"github.com/linuxtim/stm32f4xx-hal/sim"
	"github.com/linuxtim/stm32f4xx-hal/tpiu"
)

// TestBringUp walks the whole startup sequence against the simulated chip:
// ownership, clock freeze, trace report, ITM output.
func TestBringUp(t *testing.T) {
	chip := sim.NewF411()
	chip.SetTrace(16, 0b01)

	p, err := device.NewChip(chip).Take()
	if err != nil {
		t.Fatalf("Take() failed: %v", err)
	}

	clocks, err := rcc.Configure(p.RCC).Sysclk(16 * rcc.MHz).Freeze()
	if err != nil {
		t.Fatalf("Freeze() failed: %v", err)
	}
	if clocks.Sysclk() != 16*rcc.MHz {
		t.Fatalf("Sysclk() = %s, want 16 MHz", clocks.Sysclk())
	}

	report, err := tpiu.Inspect(p.TPIU, clocks)
	if err != nil {
		t.Fatalf("Inspect() failed: %v", err)
	}
	want := tpiu.Report{ACPR: 16, SPPR: 0b01, Protocol: tpiu.Manchester, SWOBaud: 1 * rcc.MHz}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("trace report mismatch (-want +got):\n%s", diff)
	}

	stim, err := itm.Port(p.ITM, 0)
	if err != nil {
		t.Fatalf("Port(0) failed: %v", err)
	}
	fmt.Fprintln(stim, "Hello, ITM!")

	if got, want := string(chip.SWOCapture()), "Hello, ITM!\n"; got != want {
		t.Fatalf("SWOCapture() = %q, want %q", got, want)
	}
}

// TestBrokenHSEStaysDown checks the simulator honours BreakHSE across
// repeated enable attempts, since the real failure mode is permanent.
func TestBrokenHSEStaysDown(t *testing.T) {
	chip := sim.NewF411()
	chip.BreakHSE()

	p, err := device.NewChip(chip).Take()
	if err != nil {
		t.Fatalf("Take() failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		p.RCC.CR.SetBits(device.RCC_CR_HSEON)
		if p.RCC.CR.HasBits(device.RCC_CR_HSERDY) {
			t.Fatalf("attempt %d: broken HSE reported ready", i+1)
		}
	}
}
