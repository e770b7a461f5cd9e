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

package rcc

// Main PLL synthesis constraints for the STM32F411, RM0383 section 6.3.2:
//
//	VCO input  = ref / M,        1 MHz  <= VCO input  <= 2 MHz
//	VCO output = ref * N / M,  100 MHz  <= VCO output <= 432 MHz
//	sysclk     = VCO output / P, P in {2, 4, 6, 8}
//
// The F411 core tops out at 100 MHz.
const (
	maxSysclk = 100 * MHz

	minPLLIn = 1 * MHz
	maxPLLIn = 2 * MHz
	minVCO   = 100 * MHz
	maxVCO   = 432 * MHz

	minPLLM = 2
	maxPLLM = 63
	minPLLN = 50
	maxPLLN = 432

	minPLLQ = 2
	maxPLLQ = 15

	// The 48 MHz domain (USB FS, SDIO, RNG) hangs off VCO / Q. Nothing in
	// this flow uses it, but Q is still programmed to keep it in range.
	maxQClock = 48 * MHz
)

var pllPDividers = [4]uint64{2, 4, 6, 8}

// pllPlan is a committed-to-be clock setting: either the reference passed
// straight through, or the main PLL with the given dividers.
type pllPlan struct {
	usePLL     bool
	m, n, p, q uint32
	achieved   Hertz
}

// plan resolves a source/target pair into PLL settings, minimising the
// distance between the achievable and desired system clock. The search is a
// pure function of its inputs: identical inputs always produce the identical
// plan.
func plan(source Oscillator, target Hertz) (pllPlan, error) {
	if target == 0 || target > maxSysclk {
		return pllPlan{}, ErrUnattainable
	}

	ref := uint64(source.Frequency())

	// A target equal to the reference needs no synthesis at all; the
	// source drives sysclk directly and exactly.
	if Hertz(ref) == target {
		return pllPlan{achieved: target}, nil
	}

	// The PLL cannot reach below VCO floor / largest P. Refuse such
	// targets rather than round them up by close to an octave.
	if target < minVCO/8 {
		return pllPlan{}, ErrUnattainable
	}

	var (
		best     pllPlan
		bestDiff = uint64(1) << 63
	)

	for m := uint64(minPLLM); m <= maxPLLM; m++ {
		if ref < uint64(minPLLIn)*m || ref > uint64(maxPLLIn)*m {
			continue
		}
		for _, p := range pllPDividers {
			// Ideal multiplier for this M/P pair, with its integer
			// neighbours to cover truncation.
			ideal := (uint64(target)*p*m + ref/2) / ref
			for _, n := range [3]uint64{ideal - 1, ideal, ideal + 1} {
				if n < minPLLN || n > maxPLLN {
					continue
				}
				vco := ref * n / m
				if vco < uint64(minVCO) || vco > uint64(maxVCO) {
					continue
				}
				achieved := vco / p
				if achieved > uint64(maxSysclk) {
					continue
				}
				diff := achieved - uint64(target)
				if achieved < uint64(target) {
					diff = uint64(target) - achieved
				}
				if diff < bestDiff {
					bestDiff = diff
					best = pllPlan{
						usePLL:   true,
						m:        uint32(m),
						n:        uint32(n),
						p:        uint32(p),
						achieved: Hertz(achieved),
					}
				}
			}
		}
	}

	if !best.usePLL {
		return pllPlan{}, ErrUnattainable
	}

	vco := ref * uint64(best.n) / uint64(best.m)
	best.q = qDivider(vco)

	return best, nil
}

// qDivider picks the smallest Q keeping VCO/Q at or under the 48 MHz domain
// limit.
func qDivider(vco uint64) uint32 {
	q := (vco + uint64(maxQClock) - 1) / uint64(maxQClock)
	if q < minPLLQ {
		q = minPLLQ
	}
	if q > maxPLLQ {
		q = maxPLLQ
	}
	return uint32(q)
}
