// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

/* block storage on top of the on chip nvm hal. the part is described by a table of regions and
each region can be flash or rram with its own block and sector size, so every size question and
every program or erase goes through the region directory first. */

package nvmbdlib

import (
	"github.com/nixomose/nixomosegotools/tools"
	"github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"
)

type Block_storage_nvm struct {
	m_log       *tools.Nixomosetools_logger
	m_hal       nvmbdinterfaces.Nvm_hal    // this is the device handle, we own it until Close.
	m_hal_nb    nvmbdinterfaces.Nvm_hal_nb // nil if the hal can't do non blocking
	m_directory *Region_directory
	m_resolver  Granularity_resolver
}

var _ nvmbdinterfaces.Block_storage = &Block_storage_nvm{}
var _ nvmbdinterfaces.Block_storage = (*Block_storage_nvm)(nil)

func New_block_storage_nvm(log *tools.Nixomosetools_logger, hal nvmbdinterfaces.Nvm_hal) (tools.Ret, *Block_storage_nvm) {
	if log == nil {
		log = tools.New_Nixomosetools_logger(tools.DEBUG)
	}
	if hal == nil {
		return tools.ErrorWithCode(log, ERR_INVALID_INPUT, "no nvm hal supplied for on chip nvm block storage."), nil
	}

	var ret = hal.Init()
	if ret != nil {
		hal.Free()
		return ret, nil
	}

	var regions []nvmbdinterfaces.Nvm_region_info
	ret, regions = hal.Get_info()
	if ret != nil {
		hal.Free()
		return ret, nil
	}

	var directory *Region_directory
	ret, directory = New_region_directory(log, regions)
	if ret != nil {
		hal.Free()
		return ret, nil
	}
	if lookup, ok := hal.(nvmbdinterfaces.Nvm_region_lookup); ok {
		directory.Set_lookup(lookup)
	}

	var b Block_storage_nvm
	b.m_log = log
	b.m_hal = hal
	b.m_directory = directory
	b.m_resolver = New_granularity_resolver(directory)
	if hal_nb, ok := hal.(nvmbdinterfaces.Nvm_hal_nb); ok {
		b.m_hal_nb = hal_nb
	}
	log.Debug("on chip nvm block storage created with ", directory.Get_region_count(), " regions, non blocking: ", b.m_hal_nb != nil)
	return nil, &b
}

// Close releases the hal, the device is no good after this.
func (this *Block_storage_nvm) Close() {
	this.m_hal.Free()
}

func (this *Block_storage_nvm) Get_region_directory() *Region_directory {
	return this.m_directory
}

func (this *Block_storage_nvm) Get_backend_kind() nvmbdinterfaces.Backend_kind {
	return nvmbdinterfaces.BACKEND_ON_CHIP_NVM
}

func (this *Block_storage_nvm) Get_capabilities() nvmbdinterfaces.Capability {
	var c = nvmbdinterfaces.CAP_IS_IN_RANGE
	if this.m_hal_nb != nil {
		c |= nvmbdinterfaces.CAP_PROGRAM_NB | nvmbdinterfaces.CAP_ERASE_NB
	}
	return c
}

func (this *Block_storage_nvm) Get_read_size(addr uint32) uint32 {
	return READ_SIZE
}

func (this *Block_storage_nvm) Get_program_size(addr uint32) uint32 {
	return this.m_resolver.Program_size(addr)
}

func (this *Block_storage_nvm) Get_erase_size(addr uint32) uint32 {
	return this.m_resolver.Erase_size(addr)
}

func (this *Block_storage_nvm) Get_erase_value(addr uint32) uint8 {
	return this.m_resolver.Erase_value(addr)
}

func (this *Block_storage_nvm) Is_erase_required(addr uint32, length uint32) bool {
	return this.m_resolver.Is_erase_required(addr, length)
}

func (this *Block_storage_nvm) Is_in_range(addr uint32, length uint32) (tools.Ret, bool) {
	return nil, this.m_directory.Find_region(addr, length) != nil
}

func (this *Block_storage_nvm) check_request(addr uint32, length uint32, granule uint32) tools.Ret {
	/* the granule came from the start address only. if the range runs into the next region the
	   granule might be wrong over there, so that's not allowed at all. */
	var ret = Check_granule(this.m_log, length, granule)
	if ret != nil {
		return ret
	}
	if this.m_directory.Find_region(addr, length) == nil {
		return tools.ErrorWithCode(this.m_log, ERR_NOT_IN_RANGE, "range at ", addr, " length ", length, " crosses a region boundary.")
	}
	return nil
}

func (this *Block_storage_nvm) Read(addr uint32, length uint32, data []byte) tools.Ret {
	var ret = check_buffer(this.m_log, length, data)
	if ret != nil {
		return ret
	}
	// reads aren't chunked, the hal takes the whole range.
	return this.m_hal.Read(addr, data[:length])
}

func (this *Block_storage_nvm) Program(addr uint32, length uint32, data []byte) tools.Ret {
	var ret = check_buffer(this.m_log, length, data)
	if ret != nil {
		return ret
	}
	var prog_size = this.m_resolver.Program_size(addr)
	this.m_log.Debug("nvm program at ", addr, " length ", length, " program size ", prog_size)
	ret = this.check_request(addr, length, prog_size)
	if ret != nil {
		return ret
	}
	return Run_chunked(this.m_log, addr, length, prog_size, func(chunk_addr uint32, offset uint32) tools.Ret {
		return this.m_hal.Program(chunk_addr, data[offset:offset+prog_size])
	})
}

func (this *Block_storage_nvm) Erase(addr uint32, length uint32) tools.Ret {
	var erase_size = this.m_resolver.Erase_size(addr)
	this.m_log.Debug("nvm erase at ", addr, " length ", length, " erase size ", erase_size)
	var ret = this.check_request(addr, length, erase_size)
	if ret != nil {
		return ret
	}
	return Run_chunked(this.m_log, addr, length, erase_size, func(chunk_addr uint32, offset uint32) tools.Ret {
		return this.m_hal.Erase(chunk_addr)
	})
}

func (this *Block_storage_nvm) Program_nb(addr uint32, length uint32, data []byte) tools.Ret {
	if this.m_hal_nb == nil {
		return not_supported(this.m_log, "program_nb")
	}
	var ret = check_buffer(this.m_log, length, data)
	if ret != nil {
		return ret
	}
	var prog_size = this.m_resolver.Program_size(addr)
	ret = this.check_request(addr, length, prog_size)
	if ret != nil {
		return ret
	}
	return Run_chunked_nb(this.m_log, addr, length, prog_size, func(chunk_addr uint32, offset uint32) tools.Ret {
		return this.m_hal_nb.Start_program(chunk_addr, data[offset:offset+prog_size])
	}, this.m_hal_nb.Is_operation_complete)
}

func (this *Block_storage_nvm) Erase_nb(addr uint32, length uint32) tools.Ret {
	if this.m_hal_nb == nil {
		return not_supported(this.m_log, "erase_nb")
	}
	var erase_size = this.m_resolver.Erase_size(addr)
	var ret = this.check_request(addr, length, erase_size)
	if ret != nil {
		return ret
	}
	return Run_chunked_nb(this.m_log, addr, length, erase_size, func(chunk_addr uint32, offset uint32) tools.Ret {
		return this.m_hal_nb.Start_erase(chunk_addr)
	}, this.m_hal_nb.Is_operation_complete)
}
