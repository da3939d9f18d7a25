// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package storage

import (
	"github.com/nixomose/nixomosegotools/tools"
	"github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"
)

var _ nvmbdinterfaces.Nvm_hal = &Sim_nvm{}
var _ nvmbdinterfaces.Nvm_hal = (*Sim_nvm)(nil)
var _ nvmbdinterfaces.Nvm_hal_nb = &Sim_nvm_nb{}

type Sim_nvm struct {
	/* For testing the block storage code without a board we make a simple on chip nvm. it has a
	   region table like the real hal reports, flash regions erase whole sectors and only clear bits
	   when programmed, rram regions just get overwritten. */

	m_log         *tools.Nixomosetools_logger
	m_regions     []nvmbdinterfaces.Nvm_region_info
	m_memory      []*Sparse_memory // one per region, same order
	m_initialized bool
	m_fail_init   tools.Ret
	Fault_injector
}

func New_sim_nvm(log *tools.Nixomosetools_logger, regions []nvmbdinterfaces.Nvm_region_info) *Sim_nvm {
	var ret Sim_nvm
	ret.m_log = log
	ret.m_regions = append([]nvmbdinterfaces.Nvm_region_info{}, regions...)
	ret.m_memory = make([]*Sparse_memory, len(regions))
	for i, r := range regions {
		ret.m_memory[i] = New_sparse_memory(log, r.Block_size, r.Erase_value)
	}
	return &ret
}

// Fail_init makes the next Init return ret, for testing construction failures.
func (this *Sim_nvm) Fail_init(ret tools.Ret) {
	this.m_fail_init = ret
}

func (this *Sim_nvm) Init() tools.Ret {
	if this.m_fail_init != nil {
		return this.m_fail_init
	}
	this.m_initialized = true
	return nil
}

func (this *Sim_nvm) Free() {
	this.m_initialized = false
}

func (this *Sim_nvm) Is_initialized() bool {
	return this.m_initialized
}

func (this *Sim_nvm) Get_info() (tools.Ret, []nvmbdinterfaces.Nvm_region_info) {
	if this.m_initialized == false {
		return tools.ErrorWithCode(this.m_log, ERR_HW_NOT_INIT, "nvm not initialized."), nil
	}
	return nil, append([]nvmbdinterfaces.Nvm_region_info{}, this.m_regions...)
}

func (this *Sim_nvm) find(addr uint32, length uint32) (int, *nvmbdinterfaces.Nvm_region_info) {
	for i := range this.m_regions {
		var r = &this.m_regions[i]
		if addr >= r.Start_address && uint64(addr)+uint64(length) <= r.End() && uint64(addr) < r.End() {
			return i, r
		}
	}
	return -1, nil
}

func (this *Sim_nvm) check(addr uint32, length uint32) (tools.Ret, int, *nvmbdinterfaces.Nvm_region_info) {
	if this.m_initialized == false {
		return tools.ErrorWithCode(this.m_log, ERR_HW_NOT_INIT, "nvm not initialized."), -1, nil
	}
	var index, region = this.find(addr, length)
	if region == nil {
		return tools.ErrorWithCode(this.m_log, ERR_HW_ADDRESS, "nvm access at ", addr, " length ", length, " is not mapped."), -1, nil
	}
	return nil, index, region
}

func (this *Sim_nvm) Read(addr uint32, data []byte) tools.Ret {
	var ret, index, _ = this.check(addr, uint32(len(data)))
	if ret != nil {
		return ret
	}
	this.m_memory[index].Read(addr, data)
	return nil
}

func (this *Sim_nvm) Program(addr uint32, data []byte) tools.Ret {
	var ret, index, region = this.check(addr, uint32(len(data)))
	if ret != nil {
		return ret
	}
	if (addr-region.Start_address)%region.Block_size != 0 || uint32(len(data))%region.Block_size != 0 {
		return tools.ErrorWithCode(this.m_log, ERR_HW_ALIGN, "nvm program at ", addr, " length ", len(data),
			" is not aligned to block size ", region.Block_size)
	}
	if this.next_program_fails() {
		return tools.ErrorWithCode(this.m_log, ERR_HW_FAULT, "simulated program failure at ", addr)
	}
	this.m_log.Debug("sim nvm program ", addr, " to ", uint64(addr)+uint64(len(data)))
	var flash = region.Nvm_type == nvmbdinterfaces.NVM_TYPE_FLASH
	this.m_memory[index].Write(addr, data, flash)
	return nil
}

func (this *Sim_nvm) Erase(addr uint32) tools.Ret {
	var ret, index, region = this.check(addr, 0)
	if ret != nil {
		return ret
	}
	var granule = region.Sector_size
	if region.Nvm_type == nvmbdinterfaces.NVM_TYPE_RRAM {
		granule = region.Block_size
	}
	if (addr-region.Start_address)%granule != 0 || uint64(addr)+uint64(granule) > region.End() {
		return tools.ErrorWithCode(this.m_log, ERR_HW_ALIGN, "nvm erase at ", addr, " is not aligned to ", granule)
	}
	if this.next_erase_fails() {
		return tools.ErrorWithCode(this.m_log, ERR_HW_FAULT, "simulated erase failure at ", addr)
	}
	this.m_log.Debug("sim nvm erase ", addr, " to ", uint64(addr)+uint64(granule))
	this.m_memory[index].Erase(addr, granule)
	return nil
}

func (this *Sim_nvm) Get_pages() map[uint32]map[uint32][]byte {
	var out = make(map[uint32]map[uint32][]byte)
	for i, r := range this.m_regions {
		out[r.Start_address] = this.m_memory[i].Get_pages()
	}
	return out
}

func (this *Sim_nvm) Set_pages(pages map[uint32]map[uint32][]byte) tools.Ret {
	for start, region_pages := range pages {
		var index, _ = this.find(start, 0)
		if index < 0 || this.m_regions[index].Start_address != start {
			return tools.ErrorWithCode(this.m_log, ERR_BAD_IMAGE, "image has data for region at ", start, " which doesn't exist.")
		}
		var ret = this.m_memory[index].Set_pages(region_pages)
		if ret != nil {
			return ret
		}
	}
	return nil
}

type Sim_nvm_nb struct {
	/* same thing, but it can also start an operation and have it finish some number of polls
	   later, like the hardware with a completion interrupt. the work is done up front, the
	   polling is just there to make the caller wait for it. */
	*Sim_nvm
	m_polls_per_op int
	m_pending      int
}

func New_sim_nvm_nb(log *tools.Nixomosetools_logger, regions []nvmbdinterfaces.Nvm_region_info, polls_per_op int) *Sim_nvm_nb {
	var ret Sim_nvm_nb
	ret.Sim_nvm = New_sim_nvm(log, regions)
	ret.m_polls_per_op = polls_per_op
	return &ret
}

func (this *Sim_nvm_nb) Start_program(addr uint32, data []byte) tools.Ret {
	var ret = this.Program(addr, data)
	if ret == nil {
		this.m_pending = this.m_polls_per_op
	}
	return ret
}

func (this *Sim_nvm_nb) Start_erase(addr uint32) tools.Ret {
	var ret = this.Erase(addr)
	if ret == nil {
		this.m_pending = this.m_polls_per_op
	}
	return ret
}

func (this *Sim_nvm_nb) Is_operation_complete() bool {
	if this.m_pending > 0 {
		this.m_pending--
		return false
	}
	return true
}
