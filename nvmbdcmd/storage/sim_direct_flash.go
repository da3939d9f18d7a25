// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package storage

import (
	"github.com/nixomose/nixomosegotools/tools"
	"github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"
)

var _ nvmbdinterfaces.Direct_flash_hal = &Sim_direct_flash{}

// Sim_direct_flash is memory mapped flash that gets written a row at a time, rows just overwrite.
type Sim_direct_flash struct {
	m_log      *tools.Nixomosetools_logger
	m_base     uint32
	m_size     uint32
	m_row_size uint32
	m_memory   *Sparse_memory
	Fault_injector
}

func New_sim_direct_flash(log *tools.Nixomosetools_logger, base uint32, size uint32, row_size uint32) *Sim_direct_flash {
	var ret Sim_direct_flash
	ret.m_log = log
	ret.m_base = base
	ret.m_size = size
	ret.m_row_size = row_size
	ret.m_memory = New_sparse_memory(log, row_size, 0x00)
	return &ret
}

func (this *Sim_direct_flash) Get_base() uint32 {
	return this.m_base
}

func (this *Sim_direct_flash) Get_size() uint32 {
	return this.m_size
}

func (this *Sim_direct_flash) Get_row_size() uint32 {
	return this.m_row_size
}

func (this *Sim_direct_flash) check_bounds(addr uint32, length uint32) tools.Ret {
	if addr < this.m_base || uint64(addr)+uint64(length) > uint64(this.m_base)+uint64(this.m_size) {
		return tools.ErrorWithCode(this.m_log, ERR_HW_ADDRESS, "direct flash access at ", addr, " length ", length,
			" is outside of ", this.m_base, " size ", this.m_size)
	}
	return nil
}

func (this *Sim_direct_flash) Read(addr uint32, data []byte) tools.Ret {
	var ret = this.check_bounds(addr, uint32(len(data)))
	if ret != nil {
		return ret
	}
	this.m_memory.Read(addr-this.m_base, data)
	return nil
}

func (this *Sim_direct_flash) Write_row(addr uint32, row []byte) tools.Ret {
	var ret = this.check_bounds(addr, uint32(len(row)))
	if ret != nil {
		return ret
	}
	if (addr-this.m_base)%this.m_row_size != 0 || uint32(len(row)) != this.m_row_size {
		return tools.ErrorWithCode(this.m_log, ERR_HW_ALIGN, "direct flash row write at ", addr, " of ", len(row),
			" bytes is not a whole row of ", this.m_row_size)
	}
	if this.next_program_fails() {
		return tools.ErrorWithCode(this.m_log, ERR_HW_FAULT, "simulated row write failure at ", addr)
	}
	this.m_memory.Write(addr-this.m_base, row, false)
	return nil
}

// pages are kept relative to the base so the image doesn't care where the part is mapped.
func (this *Sim_direct_flash) Get_pages() map[uint32][]byte {
	return this.m_memory.Get_pages()
}

func (this *Sim_direct_flash) Set_pages(pages map[uint32][]byte) tools.Ret {
	return this.m_memory.Set_pages(pages)
}
