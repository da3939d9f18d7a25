// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package nvmbdlib

import "github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"

type Granularity_resolver struct {
	m_directory *Region_directory
}

func New_granularity_resolver(directory *Region_directory) Granularity_resolver {
	var g Granularity_resolver
	g.m_directory = directory
	return g
}

func (this *Granularity_resolver) granule(addr uint32) uint32 {
	var region = this.m_directory.Find_region(addr, 0)
	if region == nil {
		return 0 // this will fail the size check on the way into the chunker.
	}
	/* for flash, block size is the smallest thing you can program and sector size is the smallest
	   thing you can erase. they don't match, so we use the bigger one for both so that program and
	   erase always cover the same area.
	   rram has no real erase, block size is the actual smallest programmable unit and sector size
	   is just how the part is laid out physically, so there we use block size. */
	if region.Nvm_type == nvmbdinterfaces.NVM_TYPE_RRAM {
		return region.Block_size
	}
	return region.Sector_size
}

func (this *Granularity_resolver) Program_size(addr uint32) uint32 {
	return this.granule(addr)
}

func (this *Granularity_resolver) Erase_size(addr uint32) uint32 {
	return this.granule(addr)
}

func (this *Granularity_resolver) Erase_value(addr uint32) uint8 {
	var region = this.m_directory.Find_region(addr, 0)
	if region == nil {
		return 0
	}
	return region.Erase_value
}

func (this *Granularity_resolver) Is_erase_required(addr uint32, length uint32) bool {
	var region = this.m_directory.Find_region(addr, length)
	if region == nil {
		return true // don't know what it is, assume it's flash.
	}
	return region.Is_erase_required
}
