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

package itm_test

import (
	"fmt"
	"testing"

	"github.com/linuxtim/stm32f4xx-hal/device"
	"github.com/linuxtim/stm32f4xx-hal/itm"
	"github.com/linuxtim/stm32f4xx-hal/sim"
)

func takeITM(t *testing.T, chip *sim.F411) *device.ITM {
	t.Helper()
	p, err := device.NewChip(chip).Take()
	if err != nil {
		t.Fatalf("Take() failed: %v", err)
	}
	return p.ITM
}

func TestPortWrite(t *testing.T) {
	chip := sim.NewF411()
	stim, err := itm.Port(takeITM(t, chip), 0)
	if err != nil {
		t.Fatalf("Port(0) failed: %v", err)
	}

	fmt.Fprintln(stim, "Hello, ITM!")
	if _, err := stim.Write([]byte{0x00, 0xff}); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	want := "Hello, ITM!\n\x00\xff"
	if got := string(chip.SWOCapture()); got != want {
		t.Fatalf("SWOCapture() = %q, want %q", got, want)
	}
}

func TestPortErrors(t *testing.T) {
	for _, test := range []struct {
		name string
		prep func(i *device.ITM)
		port int
	}{
		{name: "port out of range", port: device.NumStim},
		{name: "negative port", port: -1},
		{
			name: "ITM disabled",
			prep: func(i *device.ITM) { i.TCR.ClearBits(device.ITM_TCR_ITMENA) },
		},
		{
			name: "port masked",
			prep: func(i *device.ITM) { i.TER.Set(0) },
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			i := takeITM(t, sim.NewF411())
			if test.prep != nil {
				test.prep(i)
			}
			if w, err := itm.Port(i, test.port); err == nil {
				t.Fatalf("Port(%d) = %v, want error", test.port, w)
			}
		})
	}
}
