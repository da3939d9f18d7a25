// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package nvmbdlib

import (
	"sort"

	"github.com/nixomose/nixomosegotools/tools"
	"github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"
)

type Region_directory struct {
	m_log     *tools.Nixomosetools_logger
	m_regions []nvmbdinterfaces.Nvm_region_info
	m_lookup  nvmbdinterfaces.Nvm_region_lookup // nil unless the hal can do it itself
}

func New_region_directory(log *tools.Nixomosetools_logger, regions []nvmbdinterfaces.Nvm_region_info) (tools.Ret, *Region_directory) {
	/* the hardware geometry doesn't change at runtime so we copy it once and never touch it again.
	   we sort by start address and make sure nothing overlaps, a table where two regions claim the
	   same byte means somebody described the part wrong and every answer after that is a guess. */
	var r Region_directory
	r.m_log = log
	r.m_regions = make([]nvmbdinterfaces.Nvm_region_info, len(regions))
	copy(r.m_regions, regions)
	sort.SliceStable(r.m_regions, func(i, j int) bool {
		return r.m_regions[i].Start_address < r.m_regions[j].Start_address
	})

	for i := range r.m_regions {
		var region = &r.m_regions[i]
		if region.Size == 0 {
			return tools.ErrorWithCode(log, ERR_INVALID_INPUT, "region at ", region.Start_address, " has zero size."), nil
		}
		if region.End() > (u64(1) << 32) {
			return tools.ErrorWithCode(log, ERR_INVALID_INPUT, "region at ", region.Start_address, " size ", region.Size,
				" runs off the end of the address space."), nil
		}
		if i > 0 {
			var prev = &r.m_regions[i-1]
			if prev.End() > u64(region.Start_address) {
				return tools.ErrorWithCode(log, ERR_INVALID_INPUT, "region at ", prev.Start_address, " size ", prev.Size,
					" overlaps region at ", region.Start_address), nil
			}
		}
	}
	return nil, &r
}

// Set_lookup hands region resolution to the hal, the table is still kept for display.
func (this *Region_directory) Set_lookup(lookup nvmbdinterfaces.Nvm_region_lookup) {
	this.m_lookup = lookup
}

func (this *Region_directory) Find_region(addr uint32, length uint32) *nvmbdinterfaces.Nvm_region_info {
	/* length zero means just tell me who owns addr. otherwise the whole of [addr, addr+length) has
	   to be in one region, we don't split requests across regions because the granularity can be
	   different on the other side of the boundary. */
	if this.m_lookup != nil {
		return this.m_lookup.Get_region_for_address(addr, length)
	}

	var end u64 = u64(addr) + u64(length)
	for i := range this.m_regions {
		var region = &this.m_regions[i]
		if (addr >= region.Start_address) && (u64(addr) < region.End()) && (end <= region.End()) {
			return region
		}
	}
	return nil
}

func (this *Region_directory) Get_regions() []nvmbdinterfaces.Nvm_region_info {
	var out = make([]nvmbdinterfaces.Nvm_region_info, len(this.m_regions))
	copy(out, this.m_regions)
	return out
}

func (this *Region_directory) Get_region_count() int {
	return len(this.m_regions)
}
