// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warthog618/ad5932"
)

func init() {
	sweepCmd.Flags().Uint32VarP(&sweepOpts.Start, "start", "s", 1000, "the start frequency in Hz")
	sweepCmd.Flags().Int32VarP(&sweepOpts.Delta, "delta", "d", 100, "the frequency step in Hz, negative to sweep down")
	sweepCmd.Flags().Uint16VarP(&sweepOpts.Increments, "increments", "n", 100, "the number of steps in the sweep")
	sweepCmd.Flags().StringVarP(&sweepOpts.Mode, "mode", "m", "wc", "the time base of the dwell")
	sweepCmd.Flags().Uint32VarP(&sweepOpts.Dwell, "dwell", "t", 100, "the dwell at each step, in units of mode")
	sweepCmd.Flags().BoolVar(&sweepOpts.Trigger, "trigger", false, "pulse CTRL to start the sweep once programmed")
	sweepCmd.SetHelpTemplate(sweepCmd.HelpTemplate() + extendedSweepHelp)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(triggerCmd)
}

var extendedSweepHelp = `
Modes:
  wc:           dwell is a number of output waveform cycles
  cp:           dwell is a number of master clock periods

Note:
  The increments and dwell actually programmed are reported, as the device
  clamps the increments and quantizes the dwell.
`

var (
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialise the device",
		Long:  `Configure the lines connected to the device and reset the device.`,
		Args:  cobra.NoArgs,
		RunE:  initDevice,
	}
	sweepCmd = &cobra.Command{
		Use:   "sweep [flags]",
		Short: "Program a sweep",
		Long:  `Initialise the device and program a frequency sweep.`,
		Args:  cobra.NoArgs,
		RunE:  sweep,
	}
	triggerCmd = &cobra.Command{
		Use:   "trigger",
		Short: "Pulse the CTRL line",
		Long:  `Pulse the CTRL line to start, or step, a programmed sweep.`,
		Args:  cobra.NoArgs,
		RunE:  trigger,
	}
	sweepOpts = struct {
		Start      uint32
		Delta      int32
		Increments uint16
		Mode       string
		Dwell      uint32
		Trigger    bool
	}{}
)

func initDevice(cmd *cobra.Command, args []string) error {
	s, err := newStation(cmd.Flags(), false)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Init()
}

func sweep(cmd *cobra.Command, args []string) error {
	mode, err := parseMode(sweepOpts.Mode)
	if err != nil {
		return err
	}
	s, err := newStation(cmd.Flags(), false)
	if err != nil {
		return err
	}
	defer s.Close()
	err = s.Init()
	if err != nil {
		return err
	}
	act, err := s.Program(ad5932.Sweep{
		Start:      sweepOpts.Start,
		Delta:      sweepOpts.Delta,
		Increments: sweepOpts.Increments,
		Mode:       mode,
		Dwell:      sweepOpts.Dwell,
	})
	if err != nil {
		return err
	}
	mclk := s.MasterClock()
	start := ad5932.Frequency(ad5932.FrequencyWord(act.Start, mclk), mclk)
	fmt.Printf("start=%.3fHz delta=%dHz increments=%d dwell=%d%s\n",
		start, act.Delta, act.Increments, act.Dwell, act.Mode)
	if sweepOpts.Trigger {
		return s.TriggerControl()
	}
	return nil
}

func trigger(cmd *cobra.Command, args []string) error {
	s, err := newStation(cmd.Flags(), false)
	if err != nil {
		return err
	}
	defer s.Close()
	err = s.Idle()
	if err != nil {
		return err
	}
	return s.TriggerControl()
}

func parseMode(s string) (ad5932.DwellMode, error) {
	switch strings.ToLower(s) {
	case ad5932.DwellWC.String():
		return ad5932.DwellWC, nil
	case ad5932.DwellCP.String():
		return ad5932.DwellCP, nil
	}
	return 0, fmt.Errorf("can't parse mode '%s'", s)
}
