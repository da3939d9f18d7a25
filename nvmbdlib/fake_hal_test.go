// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package nvmbdlib

import (
	"github.com/nixomose/nixomosegotools/tools"
	"github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"
)

var test_log = tools.New_Nixomosetools_logger(tools.DEBUG)

/* a fake on chip nvm that remembers every call so the tests can see exactly what the adapter
asked the hardware to do. */

type fake_nvm_hal struct {
	regions  []nvmbdinterfaces.Nvm_region_info
	init_ret tools.Ret
	info_ret tools.Ret
	freed    int

	memory        map[uint32]byte
	program_calls []uint32
	program_sizes []int
	erase_calls   []uint32

	fail_program_on int // 1 based call number that fails, 0 never
	fail_erase_on   int
	fail_ret        tools.Ret
}

var _ nvmbdinterfaces.Nvm_hal = &fake_nvm_hal{}

func new_fake_nvm_hal(regions ...nvmbdinterfaces.Nvm_region_info) *fake_nvm_hal {
	var f fake_nvm_hal
	f.regions = regions
	f.memory = make(map[uint32]byte)
	return &f
}

func (this *fake_nvm_hal) Init() tools.Ret {
	return this.init_ret
}

func (this *fake_nvm_hal) Free() {
	this.freed++
}

func (this *fake_nvm_hal) Get_info() (tools.Ret, []nvmbdinterfaces.Nvm_region_info) {
	if this.info_ret != nil {
		return this.info_ret, nil
	}
	return nil, this.regions
}

func (this *fake_nvm_hal) Read(addr uint32, data []byte) tools.Ret {
	for i := range data {
		data[i] = this.memory[addr+uint32(i)]
	}
	return nil
}

func (this *fake_nvm_hal) Program(addr uint32, data []byte) tools.Ret {
	this.program_calls = append(this.program_calls, addr)
	this.program_sizes = append(this.program_sizes, len(data))
	if this.fail_program_on == len(this.program_calls) {
		return this.fail_ret
	}
	for i, b := range data {
		this.memory[addr+uint32(i)] = b
	}
	return nil
}

func (this *fake_nvm_hal) Erase(addr uint32) tools.Ret {
	this.erase_calls = append(this.erase_calls, addr)
	if this.fail_erase_on == len(this.erase_calls) {
		return this.fail_ret
	}
	return nil
}

type fake_nvm_hal_nb struct {
	*fake_nvm_hal
	polls_per_op int
	pending      int
	total_polls  int
	starts       int
}

var _ nvmbdinterfaces.Nvm_hal_nb = &fake_nvm_hal_nb{}

func (this *fake_nvm_hal_nb) Start_program(addr uint32, data []byte) tools.Ret {
	this.starts++
	this.pending = this.polls_per_op
	return this.Program(addr, data)
}

func (this *fake_nvm_hal_nb) Start_erase(addr uint32) tools.Ret {
	this.starts++
	this.pending = this.polls_per_op
	return this.Erase(addr)
}

func (this *fake_nvm_hal_nb) Is_operation_complete() bool {
	this.total_polls++
	if this.pending > 0 {
		this.pending--
		return false
	}
	return true
}

type fake_region_lookup_hal struct {
	*fake_nvm_hal
	lookups int
}

func (this *fake_region_lookup_hal) Get_region_for_address(addr uint32, length uint32) *nvmbdinterfaces.Nvm_region_info {
	this.lookups++
	for i := range this.regions {
		var r = &this.regions[i]
		if addr >= r.Start_address && uint64(addr)+uint64(length) <= r.End() && uint64(addr) < r.End() {
			return r
		}
	}
	return nil
}

func flash_region(start uint32, size uint32, block uint32, sector uint32) nvmbdinterfaces.Nvm_region_info {
	return nvmbdinterfaces.Nvm_region_info{Start_address: start, Size: size, Block_size: block, Sector_size: sector,
		Erase_value: 0xff, Is_erase_required: true, Nvm_type: nvmbdinterfaces.NVM_TYPE_FLASH}
}

func rram_region(start uint32, size uint32, block uint32, sector uint32) nvmbdinterfaces.Nvm_region_info {
	return nvmbdinterfaces.Nvm_region_info{Start_address: start, Size: size, Block_size: block, Sector_size: sector,
		Erase_value: 0x00, Is_erase_required: false, Nvm_type: nvmbdinterfaces.NVM_TYPE_RRAM}
}

func hw_error(msg string) tools.Ret {
	return tools.ErrorWithCode(test_log, 5, msg) // EIO, something only the hardware would say
}
