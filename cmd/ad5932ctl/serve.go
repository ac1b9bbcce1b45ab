// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tarm/serial"
	"github.com/warthog618/ad5932/console"
)

func init() {
	serveCmd.Flags().IntVarP(&serveOpts.Baud, "baud", "b", 115200, "the baud rate of the serial port")
	serveCmd.SetHelpTemplate(serveCmd.HelpTemplate() + extendedServeHelp)
	rootCmd.AddCommand(serveCmd)
}

var extendedServeHelp = `
Commands:
  init                    configure the lines and reset the device
  reset                   reset the device
  start <hz>              set the start frequency
  delta <hz>              set the delta frequency
  incr <n>                set the number of increments
  dwell <wc|cp> <n>       set the dwell time
  trig                    pulse CTRL
  read <input> <smooth>   read the capacitive input
  scan <input> <smooth>   sample the capacitive input across a sweep
  buf <smooth>            the number of samples in a scan

  Each command is answered with a line starting with "ok" or "err".
`

var (
	serveCmd = &cobra.Command{
		Use:                   "serve [flags] <port>",
		Short:                 "Serve commands from a serial port",
		Long:                  `Apply commands read from a serial port to the device, and reply with the results.`,
		Args:                  cobra.ExactArgs(1),
		RunE:                  serve,
		DisableFlagsInUseLine: true,
	}
	serveOpts = struct {
		Baud int
	}{}
)

func serve(cmd *cobra.Command, args []string) error {
	s, err := newStation(cmd.Flags(), true)
	if err != nil {
		return err
	}
	defer s.Close()
	err = s.Idle()
	if err != nil {
		return err
	}
	config := &serial.Config{
		Name: args[0],
		Baud: serveOpts.Baud,
		Size: 8,
	}
	port, err := serial.OpenPort(config)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", args[0], err)
	}
	defer port.Close()
	return console.Serve(port, s.Device)
}
