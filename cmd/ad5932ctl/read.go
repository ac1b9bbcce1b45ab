// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/warthog618/ad5932"
)

func init() {
	readCmd.Flags().Uint8VarP(&sampleOpts.Smooth, "smooth", "s", 1, "the number of samples averaged into each value")
	scanCmd.Flags().Uint8VarP(&sampleOpts.Smooth, "smooth", "s", 1, "the number of samples averaged into each value")
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(bufferSizeCmd)
}

var (
	readCmd = &cobra.Command{
		Use:                   "read [flags] <input>...",
		Short:                 "Read the capacitive input",
		Long:                  `Read averaged samples of one or more ADC inputs.`,
		Args:                  cobra.MinimumNArgs(1),
		RunE:                  read,
		DisableFlagsInUseLine: true,
	}
	scanCmd = &cobra.Command{
		Use:                   "scan [flags] <input>",
		Short:                 "Sample the capacitive input across a sweep",
		Long:                  `Sample an ADC input at each step of an externally incremented sweep.`,
		Args:                  cobra.ExactArgs(1),
		RunE:                  scan,
		DisableFlagsInUseLine: true,
	}
	bufferSizeCmd = &cobra.Command{
		Use:   "buffer-size <smooth>",
		Short: "Display the number of samples in a scan",
		Long:  `Display the number of samples collected by a scan for a given smoothing degree.`,
		Args:  cobra.ExactArgs(1),
		RunE:  bufferSize,
	}
	sampleOpts = struct {
		Smooth uint8
	}{}
)

func read(cmd *cobra.Command, args []string) error {
	ii, err := parseInputs(args)
	if err != nil {
		return err
	}
	s, err := newStation(cmd.Flags(), true)
	if err != nil {
		return err
	}
	defer s.Close()
	for _, i := range ii {
		v, err := s.ReadCapacitive(i, sampleOpts.Smooth)
		if err != nil {
			logErr(cmd, err)
			continue
		}
		fmt.Printf("%d=%d\n", i, v)
	}
	return nil
}

func scan(cmd *cobra.Command, args []string) error {
	ii, err := parseInputs(args)
	if err != nil {
		return err
	}
	s, err := newStation(cmd.Flags(), true)
	if err != nil {
		return err
	}
	defer s.Close()
	err = s.Idle()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	vv, err := s.Scan(ctx, ii[0], sampleOpts.Smooth)
	for i, v := range vv {
		fmt.Printf("%d %d\n", i, v)
	}
	return err
}

func bufferSize(cmd *cobra.Command, args []string) error {
	smooth, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return fmt.Errorf("can't parse smooth '%s'", args[0])
	}
	fmt.Println(ad5932.BufferSize(uint8(smooth)))
	return nil
}

func parseInputs(args []string) ([]int, error) {
	ii := []int(nil)
	for _, arg := range args {
		i, err := strconv.ParseUint(arg, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("can't parse input '%s'", arg)
		}
		ii = append(ii, int(i))
	}
	return ii, nil
}
