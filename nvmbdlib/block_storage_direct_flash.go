// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

/* block storage for parts where the flash is memory mapped in one piece and the only write
primitive is "write this row". no region table, one row size for program and erase, and erasing
means writing a row of zeros. */

package nvmbdlib

import (
	"github.com/nixomose/nixomosegotools/tools"
	"github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"
)

type Block_storage_direct_flash struct {
	m_log      *tools.Nixomosetools_logger
	m_hal      nvmbdinterfaces.Direct_flash_hal
	m_base     u32
	m_size     u32
	m_row_size u32
	m_zero_row []byte
}

var _ nvmbdinterfaces.Block_storage = &Block_storage_direct_flash{}
var _ nvmbdinterfaces.Block_storage = (*Block_storage_direct_flash)(nil)

func New_block_storage_direct_flash(log *tools.Nixomosetools_logger, hal nvmbdinterfaces.Direct_flash_hal) (tools.Ret, *Block_storage_direct_flash) {
	if log == nil {
		log = tools.New_Nixomosetools_logger(tools.DEBUG)
	}
	if hal == nil {
		return tools.ErrorWithCode(log, ERR_INVALID_INPUT, "no flash hal supplied for direct flash block storage."), nil
	}
	var b Block_storage_direct_flash
	b.m_log = log
	b.m_hal = hal
	b.m_base = hal.Get_base()
	b.m_size = hal.Get_size()
	b.m_row_size = hal.Get_row_size()
	b.m_zero_row = make([]byte, b.m_row_size) // erase value is zero so this is already right.
	return nil, &b
}

func (this *Block_storage_direct_flash) Get_backend_kind() nvmbdinterfaces.Backend_kind {
	return nvmbdinterfaces.BACKEND_DIRECT_FLASH
}

func (this *Block_storage_direct_flash) Get_capabilities() nvmbdinterfaces.Capability {
	return nvmbdinterfaces.CAP_IS_IN_RANGE
}

func (this *Block_storage_direct_flash) Get_read_size(addr uint32) uint32 {
	return READ_SIZE
}

func (this *Block_storage_direct_flash) Get_program_size(addr uint32) uint32 {
	return this.m_row_size
}

func (this *Block_storage_direct_flash) Get_erase_size(addr uint32) uint32 {
	return this.m_row_size
}

func (this *Block_storage_direct_flash) Get_erase_value(addr uint32) uint8 {
	return DIRECT_FLASH_ERASE_VALUE
}

func (this *Block_storage_direct_flash) Is_erase_required(addr uint32, length uint32) bool {
	return false // a row write replaces the whole row.
}

func (this *Block_storage_direct_flash) Is_in_range(addr uint32, length uint32) (tools.Ret, bool) {
	var end = u64(this.m_base) + u64(this.m_size)
	return nil, (addr >= this.m_base) && (u64(addr) < end) && (u64(addr)+u64(length) <= end)
}

func (this *Block_storage_direct_flash) Read(addr uint32, length uint32, data []byte) tools.Ret {
	var ret = check_buffer(this.m_log, length, data)
	if ret != nil {
		return ret
	}
	return this.m_hal.Read(addr, data[:length])
}

func (this *Block_storage_direct_flash) Program(addr uint32, length uint32, data []byte) tools.Ret {
	var ret = check_buffer(this.m_log, length, data)
	if ret != nil {
		return ret
	}
	this.m_log.Debug("direct flash program at ", addr, " length ", length)
	return Run_chunked(this.m_log, addr, length, this.m_row_size, func(chunk_addr uint32, offset uint32) tools.Ret {
		return this.m_hal.Write_row(chunk_addr, data[offset:offset+this.m_row_size])
	})
}

func (this *Block_storage_direct_flash) Erase(addr uint32, length uint32) tools.Ret {
	this.m_log.Debug("direct flash erase at ", addr, " length ", length)
	return Run_chunked(this.m_log, addr, length, this.m_row_size, func(chunk_addr uint32, offset uint32) tools.Ret {
		return this.m_hal.Write_row(chunk_addr, this.m_zero_row)
	})
}

func (this *Block_storage_direct_flash) Program_nb(addr uint32, length uint32, data []byte) tools.Ret {
	return not_supported(this.m_log, "program_nb")
}

func (this *Block_storage_direct_flash) Erase_nb(addr uint32, length uint32) tools.Ret {
	return not_supported(this.m_log, "erase_nb")
}
