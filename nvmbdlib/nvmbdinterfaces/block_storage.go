// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

// Package nvmbdinterfaces has the interfaces shared between the block storage adapters and the
// hardware they sit on top of.
package nvmbdinterfaces

import "github.com/nixomose/nixomosegotools/tools"

type Block_storage interface {

	/* this is the one interface every backend (on chip nvm, serial flash, serial memory, direct
	mapped flash) hands back to the caller. a backend that can't do something still implements the
	function, it just returns a not supported error, so nobody ever calls through a nil. */

	// read is direct access so this is always 1 for everybody.
	Get_read_size(addr uint32) uint32
	// zero means we couldn't figure out the geometry at addr.
	Get_program_size(addr uint32) uint32
	Get_erase_size(addr uint32) uint32
	Get_erase_value(addr uint32) uint8

	Read(addr uint32, length uint32, data []byte) tools.Ret
	Program(addr uint32, length uint32, data []byte) tools.Ret
	Erase(addr uint32, length uint32) tools.Ret

	// these wait for the hardware to finish before returning, they just don't spin in the driver.
	Program_nb(addr uint32, length uint32, data []byte) tools.Ret
	Erase_nb(addr uint32, length uint32) tools.Ret

	// ret is not supported if the backend has no idea how big it is, and then the bool is false.
	Is_in_range(addr uint32, length uint32) (tools.Ret, bool)
	Is_erase_required(addr uint32, length uint32) bool

	Get_backend_kind() Backend_kind
	Get_capabilities() Capability
}

type Backend_kind int

const (
	BACKEND_ON_CHIP_NVM Backend_kind = iota
	BACKEND_SERIAL_FLASH
	BACKEND_SERIAL_MEMORY
	BACKEND_DIRECT_FLASH
)

func (k Backend_kind) String() string {
	switch k {
	case BACKEND_ON_CHIP_NVM:
		return "on_chip_nvm"
	case BACKEND_SERIAL_FLASH:
		return "serial_flash"
	case BACKEND_SERIAL_MEMORY:
		return "serial_memory"
	case BACKEND_DIRECT_FLASH:
		return "direct_flash"
	}
	return "unknown"
}

// Capability is a bit set of the optional operations a backend actually implements.
type Capability uint32

const (
	CAP_PROGRAM_NB Capability = 1 << iota
	CAP_ERASE_NB
	CAP_IS_IN_RANGE
)

// the ones everybody has are not in the set, read/program/erase and the size queries always work.

func (c Capability) Has(other Capability) bool {
	return c&other == other
}

func (c Capability) String() string {
	var s string
	if c.Has(CAP_PROGRAM_NB) {
		s += "program_nb "
	}
	if c.Has(CAP_ERASE_NB) {
		s += "erase_nb "
	}
	if c.Has(CAP_IS_IN_RANGE) {
		s += "is_in_range "
	}
	if len(s) == 0 {
		return "none"
	}
	return s[:len(s)-1]
}
