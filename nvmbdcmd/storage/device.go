// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package storage

import (
	"github.com/nixomose/nixomosegotools/tools"
	"github.com/nixomose/nvmbdgo/nvmbdlib"
	"github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"
)

type Device struct {
	/* a simulated part with the right block storage adapter on top of it. the cli only ever talks
	   to the block storage, the sim is kept around so we can save and restore what's in it. */

	m_log           *tools.Nixomosetools_logger
	m_geometry      Geometry
	m_block_storage nvmbdinterfaces.Block_storage
	m_nvm_storage   *nvmbdlib.Block_storage_nvm

	// exactly one of these is set, depending on the backend.
	m_nvm    *Sim_nvm
	m_serial *Sim_serial
	m_direct *Sim_direct_flash
}

func Open_device(log *tools.Nixomosetools_logger, geometry *Geometry) (tools.Ret, *Device) {
	var ret = geometry.Validate(log)
	if ret != nil {
		return ret, nil
	}
	var kind nvmbdinterfaces.Backend_kind
	ret, kind = geometry.Get_backend_kind(log)
	if ret != nil {
		return ret, nil
	}

	var dev Device
	dev.m_log = log
	dev.m_geometry = *geometry

	switch kind {
	case nvmbdinterfaces.BACKEND_ON_CHIP_NVM:
		var regions []nvmbdinterfaces.Nvm_region_info
		ret, regions = geometry.Get_region_info(log)
		if ret != nil {
			return ret, nil
		}
		var hal nvmbdinterfaces.Nvm_hal
		if geometry.Non_blocking {
			var nb = New_sim_nvm_nb(log, regions, geometry.Polls_per_operation)
			dev.m_nvm = nb.Sim_nvm
			hal = nb
		} else {
			dev.m_nvm = New_sim_nvm(log, regions)
			hal = dev.m_nvm
		}
		var bs *nvmbdlib.Block_storage_nvm
		ret, bs = nvmbdlib.New_block_storage_nvm(log, hal)
		if ret != nil {
			return ret, nil
		}
		dev.m_nvm_storage = bs
		dev.m_block_storage = bs

	case nvmbdinterfaces.BACKEND_SERIAL_FLASH, nvmbdinterfaces.BACKEND_SERIAL_MEMORY:
		var s = geometry.Serial
		dev.m_serial = New_sim_serial(log, s.Size, s.Program_size, s.Erase_size, kind == nvmbdinterfaces.BACKEND_SERIAL_FLASH)
		var bs *nvmbdlib.Block_storage_serial
		if kind == nvmbdinterfaces.BACKEND_SERIAL_FLASH {
			ret, bs = nvmbdlib.New_block_storage_serial_flash(log, dev.m_serial)
		} else {
			ret, bs = nvmbdlib.New_block_storage_serial_memory(log, dev.m_serial)
		}
		if ret != nil {
			return ret, nil
		}
		dev.m_block_storage = bs

	case nvmbdinterfaces.BACKEND_DIRECT_FLASH:
		var d = geometry.Direct
		dev.m_direct = New_sim_direct_flash(log, d.Base, d.Size, d.Row_size)
		var bs *nvmbdlib.Block_storage_direct_flash
		ret, bs = nvmbdlib.New_block_storage_direct_flash(log, dev.m_direct)
		if ret != nil {
			return ret, nil
		}
		dev.m_block_storage = bs
	}

	log.Debug("opened simulated ", kind.String(), " device")
	return nil, &dev
}

func (this *Device) Get_block_storage() nvmbdinterfaces.Block_storage {
	return this.m_block_storage
}

func (this *Device) Get_geometry() *Geometry {
	return &this.m_geometry
}

// Get_regions is the region table for on chip nvm, nil for everybody else.
func (this *Device) Get_regions() []nvmbdinterfaces.Nvm_region_info {
	if this.m_nvm_storage == nil {
		return nil
	}
	return this.m_nvm_storage.Get_region_directory().Get_regions()
}

func (this *Device) Get_fault_injector() *Fault_injector {
	switch {
	case this.m_nvm != nil:
		return &this.m_nvm.Fault_injector
	case this.m_serial != nil:
		return &this.m_serial.Fault_injector
	}
	return &this.m_direct.Fault_injector
}

/* the pages are keyed by region start for on chip nvm, everything else only has the one
   region so it all goes under zero. */

func (this *Device) Get_pages() map[uint32]map[uint32][]byte {
	switch {
	case this.m_nvm != nil:
		return this.m_nvm.Get_pages()
	case this.m_serial != nil:
		return map[uint32]map[uint32][]byte{0: this.m_serial.Get_pages()}
	}
	return map[uint32]map[uint32][]byte{0: this.m_direct.Get_pages()}
}

func (this *Device) Set_pages(pages map[uint32]map[uint32][]byte) tools.Ret {
	if this.m_nvm != nil {
		return this.m_nvm.Set_pages(pages)
	}
	for key := range pages {
		if key != 0 {
			return tools.ErrorWithCode(this.m_log, ERR_BAD_IMAGE, "image has data for region ", key,
				" but this device only has one.")
		}
	}
	if this.m_serial != nil {
		return this.m_serial.Set_pages(pages[0])
	}
	return this.m_direct.Set_pages(pages[0])
}

func (this *Device) Close() {
	if this.m_nvm_storage != nil {
		this.m_nvm_storage.Close()
	}
}
