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

// clocksetup runs the clock and trace bring-up sequence end to end against
// the simulated STM32F411: take the peripherals, freeze the clock tree from
// the selected oscillator, report the SWO trace configuration derived from
// the achieved core clock, demonstrate ITM output, then halt deliberately.
//
// The final fatal exit is the point of the demonstration, not a defect: it
// exercises the fatal-reporting path after the trace channel has been shown
// to work. Every decision is narrated beforehand so the run can be
// reconstructed from the diagnostic output alone.
package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/linuxtim/stm32f4xx-hal/config"
	"github.com/linuxtim/stm32f4xx-hal/device"
	"github.com/linuxtim/stm32f4xx-hal/itm"
	"github.com/linuxtim/stm32f4xx-hal/rcc"
	"github.com/linuxtim/stm32f4xx-hal/semihosting"
	"github.com/linuxtim/stm32f4xx-hal/sim"
	"github.com/linuxtim/stm32f4xx-hal/tpiu"
)

// initialized at compile time (see Makefile)
var (
	Build    string
	Revision string
)

var conf struct {
	profile string
	board   string
	sysclk  uint
	acpr    uint
	sppr    uint
}

func init() {
	flag.StringVar(&conf.profile, "profile", "", "YAML board profile path (overrides -board)")
	flag.StringVar(&conf.board, "board", "hsi16", fmt.Sprintf("built-in board profile, one of %v", config.BuiltinNames()))
	flag.UintVar(&conf.sysclk, "sysclk", 0, "desired system clock in Hz (overrides the profile)")
	flag.UintVar(&conf.acpr, "acpr", 16, "TPIU prescaler the simulated debug probe configured")
	flag.UintVar(&conf.sppr, "sppr", 0b01, "TPIU pin protocol the simulated debug probe configured")
}

func main() {
	klog.InitFlags(nil)
	_ = flag.Set("logtostderr", "false")
	flag.Parse()
	klog.SetOutput(semihosting.Stdout)
	defer semihosting.Stdout.Flush()

	profile, err := loadProfile()
	if err != nil {
		klog.Exitf("configuration error, %v", err)
	}

	source := profile.Source()
	target := profile.Sysclk()

	klog.Infof("clocksetup %s %s • STM32F411 clock and SWO trace bring-up", Revision, Build)
	klog.Info("hello via semihosting; this channel is slow and best effort")
	klog.Infof("board profile %q: %s, desired sysclk %s", profile.Board, source, target)

	chip := sim.NewF411()
	chip.SetTrace(uint32(conf.acpr), uint32(conf.sppr))

	p, err := device.NewChip(chip).Take()
	if err != nil {
		klog.Exitf("peripheral ownership: %v", err)
	}

	if source.External() {
		klog.Warningf("about to configure the clock hardware to expect an external oscillator of %s", source.Frequency())
		klog.Warning("if the fitted oscillator is much faster than declared, the core may misbehave or be damaged")
		klog.Warning("if no oscillator is fitted or it fails to start, the clock never stabilises and bring-up stops here")
	}

	cfg := rcc.Configure(p.RCC).Sysclk(target)
	if source.External() {
		cfg = cfg.UseHSE(source.Frequency())
	}

	clocks, err := cfg.Freeze()
	if err != nil {
		klog.Exitf("clock tree freeze: %v", err)
	}
	klog.Infof("clock tree frozen, achieved sysclk %s (requested %s)", clocks.Sysclk(), target)

	report, err := tpiu.Inspect(p.TPIU, clocks)
	if err != nil {
		klog.Errorf("trace link: acpr=%d sppr=%02b (%s)", report.ACPR, report.SPPR, report.Protocol)
		klog.Exitf("trace link: %v", err)
	}

	klog.Infof("asynchronous clock prescaler register: %d", report.ACPR)
	klog.Infof("SWO baud rate == sysclk / acpr == %s", report.SWOBaud)
	klog.Infof("TPIU output mode: %s", report.Protocol)
	if report.Protocol == tpiu.Reserved {
		klog.Warning("pin protocol register holds the reserved encoding; no receiver can decode this")
	}

	stim, err := itm.Port(p.ITM, 0)
	if err != nil {
		klog.Exitf("ITM: %v", err)
	}

	fmt.Fprintln(stim, "Hello, ITM!")
	fmt.Fprintln(stim, "Sometimes the best thing to do is to halt.")
	fmt.Fprintln(stim, "This is one of those times...")

	klog.Infof("SWO receiver would have decoded at %s:", report.SWOBaud)
	os.Stdout.Write(chip.SWOCapture())

	// Demonstration over. Exit through the fatal-reporting path on
	// purpose; an idle loop would hide whether it works.
	klog.Exit("trace output demonstrated, halting deliberately")
}

func loadProfile() (*config.Profile, error) {
	var profile *config.Profile
	var err error

	if conf.profile != "" {
		profile, err = config.Load(conf.profile)
	} else {
		profile, err = config.Builtin(conf.board)
	}
	if err != nil {
		return nil, err
	}

	if conf.sysclk != 0 {
		profile.SysclkHz = uint32(conf.sysclk)
	}
	return profile, profile.Validate()
}
