// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

/* block storage on top of external serial parts. both the qspi serial flash driver and the
serial memory driver take whole ranges and do their own chunking, so this is mostly pass through.
the two only differ in what they call themselves. */

package nvmbdlib

import (
	"github.com/nixomose/nixomosegotools/tools"
	"github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"
)

type Block_storage_serial struct {
	m_log  *tools.Nixomosetools_logger
	m_hal  nvmbdinterfaces.Serial_hal
	m_kind nvmbdinterfaces.Backend_kind
}

var _ nvmbdinterfaces.Block_storage = &Block_storage_serial{}
var _ nvmbdinterfaces.Block_storage = (*Block_storage_serial)(nil)

func New_block_storage_serial_flash(log *tools.Nixomosetools_logger, hal nvmbdinterfaces.Serial_hal) (tools.Ret, *Block_storage_serial) {
	return new_block_storage_serial(log, hal, nvmbdinterfaces.BACKEND_SERIAL_FLASH)
}

func New_block_storage_serial_memory(log *tools.Nixomosetools_logger, hal nvmbdinterfaces.Serial_hal) (tools.Ret, *Block_storage_serial) {
	return new_block_storage_serial(log, hal, nvmbdinterfaces.BACKEND_SERIAL_MEMORY)
}

func new_block_storage_serial(log *tools.Nixomosetools_logger, hal nvmbdinterfaces.Serial_hal,
	kind nvmbdinterfaces.Backend_kind) (tools.Ret, *Block_storage_serial) {
	if log == nil {
		log = tools.New_Nixomosetools_logger(tools.DEBUG)
	}
	if hal == nil {
		return tools.ErrorWithCode(log, ERR_INVALID_INPUT, "no serial hal supplied for ", kind.String(), " block storage."), nil
	}
	var b Block_storage_serial
	b.m_log = log
	b.m_hal = hal
	b.m_kind = kind
	return nil, &b
}

func (this *Block_storage_serial) Get_backend_kind() nvmbdinterfaces.Backend_kind {
	return this.m_kind
}

func (this *Block_storage_serial) Get_capabilities() nvmbdinterfaces.Capability {
	return 0
}

func (this *Block_storage_serial) Get_read_size(addr uint32) uint32 {
	return READ_SIZE
}

func (this *Block_storage_serial) Get_program_size(addr uint32) uint32 {
	return this.m_hal.Get_prog_size(addr)
}

func (this *Block_storage_serial) Get_erase_size(addr uint32) uint32 {
	return this.m_hal.Get_erase_size(addr)
}

func (this *Block_storage_serial) Get_erase_value(addr uint32) uint8 {
	return SERIAL_ERASE_VALUE
}

func (this *Block_storage_serial) Is_erase_required(addr uint32, length uint32) bool {
	/* there's no way to tell what kind of memory is hanging off the bus, so be safe and assume
	   it's flash that has to be erased before it's written. */
	return true
}

func (this *Block_storage_serial) Is_in_range(addr uint32, length uint32) (tools.Ret, bool) {
	// removable, and we have no idea how big it is.
	return not_supported(this.m_log, "is_in_range"), false
}

func (this *Block_storage_serial) Read(addr uint32, length uint32, data []byte) tools.Ret {
	var ret = check_buffer(this.m_log, length, data)
	if ret != nil {
		return ret
	}
	return this.m_hal.Read(addr, length, data)
}

func (this *Block_storage_serial) Program(addr uint32, length uint32, data []byte) tools.Ret {
	var ret = check_buffer(this.m_log, length, data)
	if ret != nil {
		return ret
	}
	this.m_log.Debug(this.m_kind.String(), " write at ", addr, " length ", length)
	return this.m_hal.Write(addr, length, data)
}

func (this *Block_storage_serial) Erase(addr uint32, length uint32) tools.Ret {
	this.m_log.Debug(this.m_kind.String(), " erase at ", addr, " length ", length)
	return this.m_hal.Erase(addr, length)
}

func (this *Block_storage_serial) Program_nb(addr uint32, length uint32, data []byte) tools.Ret {
	return not_supported(this.m_log, "program_nb")
}

func (this *Block_storage_serial) Erase_nb(addr uint32, length uint32) tools.Ret {
	return not_supported(this.m_log, "erase_nb")
}
