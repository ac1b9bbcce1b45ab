// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package console provides a line oriented command interface to an AD5932,
// suitable for driving the device from a host over a serial link.
//
// Each command is a single line of space separated fields.
// Each command is answered by a single line, either "ok" followed by any
// results, or "err" followed by a description of the error.
//
//	init                    configure the lines and reset the device
//	reset                   reset the device
//	start <hz>              set the start frequency
//	delta <hz>              set the delta frequency, negative to sweep down
//	incr <n>                set the number of increments, returns the count used
//	dwell <wc|cp> <n>       set the dwell time, returns the dwell achieved
//	trig                    pulse CTRL
//	read <input> <smooth>   returns an averaged capacitive sample
//	scan <input> <smooth>   returns the samples of a stepped sweep
//	buf <smooth>            returns the number of samples in a scan
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/warthog618/ad5932"
)

var (
	// ErrUnknownCommand indicates the command is not recognised.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrArgCount indicates the command has the wrong number of arguments.
	ErrArgCount = errors.New("wrong number of arguments")
)

type handler struct {
	nargs int
	fn    func(d *ad5932.Device, args []string) ([]string, error)
}

var handlers = map[string]handler{
	"init":  {0, cmdInit},
	"reset": {0, cmdReset},
	"start": {1, cmdStart},
	"delta": {1, cmdDelta},
	"incr":  {1, cmdIncr},
	"dwell": {2, cmdDwell},
	"trig":  {0, cmdTrig},
	"read":  {2, cmdRead},
	"scan":  {2, cmdScan},
	"buf":   {1, cmdBuf},
}

// Serve reads commands from rw, applies them to the device, and writes the
// responses back to rw.
//
// Serve returns nil when rw reaches EOF, or the error if reading or
// writing rw fails.
// Errors returned by the device are reported to the host, not returned.
func Serve(rw io.ReadWriter, d *ad5932.Device) error {
	s := bufio.NewScanner(rw)
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) == 0 {
			continue
		}
		_, err := io.WriteString(rw, Execute(d, fields[0], fields[1:]...)+"\n")
		if err != nil {
			return err
		}
	}
	return s.Err()
}

// Execute applies a single command to the device and returns the response
// line, without the trailing newline.
func Execute(d *ad5932.Device, cmd string, args ...string) string {
	h, ok := handlers[strings.ToLower(cmd)]
	if !ok {
		return fmt.Sprintf("err %s: %s", ErrUnknownCommand, cmd)
	}
	if len(args) != h.nargs {
		return fmt.Sprintf("err %s: %s", ErrArgCount, cmd)
	}
	rr, err := h.fn(d, args)
	if err != nil {
		return fmt.Sprintf("err %s", err)
	}
	return strings.Join(append([]string{"ok"}, rr...), " ")
}

func cmdInit(d *ad5932.Device, args []string) ([]string, error) {
	return nil, d.Init()
}

func cmdReset(d *ad5932.Device, args []string) ([]string, error) {
	return nil, d.Reset()
}

func cmdStart(d *ad5932.Device, args []string) ([]string, error) {
	hz, err := parseUint(args[0], 32)
	if err != nil {
		return nil, err
	}
	return nil, d.SetStartFrequency(uint32(hz))
}

func cmdDelta(d *ad5932.Device, args []string) ([]string, error) {
	hz, err := strconv.ParseInt(args[0], 0, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid value '%s'", args[0])
	}
	return nil, d.SetDeltaFrequency(int32(hz))
}

func cmdIncr(d *ad5932.Device, args []string) ([]string, error) {
	n, err := parseUint(args[0], 16)
	if err != nil {
		return nil, err
	}
	act, _, err := d.SetIncrementCount(uint16(n))
	if err != nil {
		return nil, err
	}
	return []string{strconv.Itoa(int(act))}, nil
}

func cmdDwell(d *ad5932.Device, args []string) ([]string, error) {
	mode, err := parseMode(args[0])
	if err != nil {
		return nil, err
	}
	n, err := parseUint(args[1], 32)
	if err != nil {
		return nil, err
	}
	act, err := d.SetDwellTime(mode, uint32(n))
	if err != nil {
		return nil, err
	}
	return []string{strconv.FormatUint(uint64(act), 10)}, nil
}

func cmdTrig(d *ad5932.Device, args []string) ([]string, error) {
	return nil, d.TriggerControl()
}

func cmdRead(d *ad5932.Device, args []string) ([]string, error) {
	input, smooth, err := parseSample(args)
	if err != nil {
		return nil, err
	}
	v, err := d.ReadCapacitive(input, smooth)
	if err != nil {
		return nil, err
	}
	return []string{strconv.Itoa(v)}, nil
}

func cmdScan(d *ad5932.Device, args []string) ([]string, error) {
	input, smooth, err := parseSample(args)
	if err != nil {
		return nil, err
	}
	vv, err := d.Scan(context.Background(), input, smooth)
	if err != nil {
		return nil, err
	}
	rr := make([]string, len(vv))
	for i, v := range vv {
		rr[i] = strconv.Itoa(v)
	}
	return rr, nil
}

func cmdBuf(d *ad5932.Device, args []string) ([]string, error) {
	smooth, err := parseUint(args[0], 8)
	if err != nil {
		return nil, err
	}
	return []string{strconv.Itoa(ad5932.BufferSize(uint8(smooth)))}, nil
}

func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid value '%s'", s)
	}
	return v, nil
}

func parseMode(s string) (ad5932.DwellMode, error) {
	switch strings.ToLower(s) {
	case ad5932.DwellWC.String():
		return ad5932.DwellWC, nil
	case ad5932.DwellCP.String():
		return ad5932.DwellCP, nil
	}
	return 0, fmt.Errorf("invalid dwell mode '%s'", s)
}

func parseSample(args []string) (int, uint8, error) {
	input, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid input '%s'", args[0])
	}
	smooth, err := parseUint(args[1], 8)
	if err != nil {
		return 0, 0, err
	}
	return input, uint8(smooth), nil
}
