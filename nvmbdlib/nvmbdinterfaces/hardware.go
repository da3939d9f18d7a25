// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package nvmbdinterfaces

import "github.com/nixomose/nixomosegotools/tools"

/* these are the hardware side collaborators. the adapters don't know or care how a row actually
gets burned into the part, they just call these. the real ones talk to the chip, the ones in
nvmbdcmd/storage are simulations so we can test the whole thing without a board. */

type Nvm_type int

const (
	NVM_TYPE_FLASH Nvm_type = iota
	NVM_TYPE_RRAM
)

func (t Nvm_type) String() string {
	if t == NVM_TYPE_RRAM {
		return "rram"
	}
	return "flash"
}

type Nvm_region_info struct {
	Start_address     uint32
	Size              uint32
	Block_size        uint32 // smallest thing the hardware can program
	Sector_size       uint32 // smallest thing the hardware can erase
	Erase_value       uint8
	Is_erase_required bool
	Nvm_type          Nvm_type
}

// End returns one past the last byte, as a uint64 so a region at the top of the map doesn't wrap.
func (this *Nvm_region_info) End() uint64 {
	return uint64(this.Start_address) + uint64(this.Size)
}

type Nvm_hal interface {
	Init() tools.Ret
	Free()

	Get_info() (tools.Ret, []Nvm_region_info)

	Read(addr uint32, data []byte) tools.Ret
	/* program len(data) bytes at addr, addr is aligned to whatever the adapter says the program
	size is at that address. */
	Program(addr uint32, data []byte) tools.Ret
	// erase the erase granule that starts at addr.
	Erase(addr uint32) tools.Ret
}

/* Nvm_hal_nb is optional. if the nvm hal also implements this, the adapter exposes the non
blocking program and erase, otherwise they come back not supported. */
type Nvm_hal_nb interface {
	Start_program(addr uint32, data []byte) tools.Ret
	Start_erase(addr uint32) tools.Ret
	Is_operation_complete() bool
}

/* Nvm_region_lookup is also optional, newer hals can find the region for an address themselves
so we use theirs instead of scanning the table. */
type Nvm_region_lookup interface {
	Get_region_for_address(addr uint32, length uint32) *Nvm_region_info
}

type Serial_hal interface {

	/* serial flash over qspi and the serial memory modules look the same from up here. they take
	whole ranges and deal with the chunking themselves. */

	Get_prog_size(addr uint32) uint32
	Get_erase_size(addr uint32) uint32

	Read(addr uint32, length uint32, data []byte) tools.Ret
	Write(addr uint32, length uint32, data []byte) tools.Ret
	Erase(addr uint32, length uint32) tools.Ret
}

type Direct_flash_hal interface {

	/* memory mapped flash with one fixed row size and one contiguous extent. there's no erase
	command, you erase a row by writing the erase value over it. */

	Get_base() uint32
	Get_size() uint32
	Get_row_size() uint32

	Read(addr uint32, data []byte) tools.Ret
	Write_row(addr uint32, row []byte) tools.Ret
}
