// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package storage

import (
	"github.com/nixomose/nixomosegotools/tools"
	"github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"
)

var _ nvmbdinterfaces.Serial_hal = &Sim_serial{}

type Sim_serial struct {
	/* a spi nor or eeprom-ish part hanging off a serial bus. flash can only clear bits on write and
	   erases in big aligned chunks, serial memory (is_flash false) just gets overwritten and the
	   driver will take an erase anywhere. */

	m_log          *tools.Nixomosetools_logger
	m_size         uint32
	m_program_size uint32
	m_erase_size   uint32
	m_is_flash     bool
	m_memory       *Sparse_memory
	Fault_injector
}

func New_sim_serial(log *tools.Nixomosetools_logger, size uint32, program_size uint32, erase_size uint32,
	is_flash bool) *Sim_serial {
	var ret Sim_serial
	ret.m_log = log
	ret.m_size = size
	ret.m_program_size = program_size
	ret.m_erase_size = erase_size
	ret.m_is_flash = is_flash
	ret.m_memory = New_sparse_memory(log, erase_size, 0xff)
	return &ret
}

// the part is uniform so the sizes are the same everywhere.
func (this *Sim_serial) Get_prog_size(addr uint32) uint32 {
	return this.m_program_size
}

func (this *Sim_serial) Get_erase_size(addr uint32) uint32 {
	return this.m_erase_size
}

func (this *Sim_serial) check_bounds(addr uint32, length uint32) tools.Ret {
	if uint64(addr)+uint64(length) > uint64(this.m_size) {
		return tools.ErrorWithCode(this.m_log, ERR_HW_ADDRESS, "serial access at ", addr, " length ", length,
			" is past the end of the part, size ", this.m_size)
	}
	return nil
}

func (this *Sim_serial) Read(addr uint32, length uint32, data []byte) tools.Ret {
	var ret = this.check_bounds(addr, length)
	if ret != nil {
		return ret
	}
	this.m_memory.Read(addr, data[:length])
	return nil
}

func (this *Sim_serial) Write(addr uint32, length uint32, data []byte) tools.Ret {
	var ret = this.check_bounds(addr, length)
	if ret != nil {
		return ret
	}
	if this.next_program_fails() {
		return tools.ErrorWithCode(this.m_log, ERR_HW_FAULT, "simulated serial write failure at ", addr)
	}
	this.m_memory.Write(addr, data[:length], this.m_is_flash)
	return nil
}

func (this *Sim_serial) Erase(addr uint32, length uint32) tools.Ret {
	var ret = this.check_bounds(addr, length)
	if ret != nil {
		return ret
	}
	if this.m_is_flash && (addr%this.m_erase_size != 0 || length%this.m_erase_size != 0) {
		return tools.ErrorWithCode(this.m_log, ERR_HW_ALIGN, "serial flash erase at ", addr, " length ", length,
			" is not aligned to ", this.m_erase_size)
	}
	if this.next_erase_fails() {
		return tools.ErrorWithCode(this.m_log, ERR_HW_FAULT, "simulated serial erase failure at ", addr)
	}
	this.m_memory.Erase(addr, length)
	return nil
}

func (this *Sim_serial) Get_pages() map[uint32][]byte {
	return this.m_memory.Get_pages()
}

func (this *Sim_serial) Set_pages(pages map[uint32][]byte) tools.Ret {
	return this.m_memory.Set_pages(pages)
}
