// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package ad5932

// WriteRegister exposes writeRegister to the tests.
func (d *Device) WriteRegister(addr uint8, data uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegister(addr, data)
}
