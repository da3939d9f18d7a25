// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package nvmbdlib

import (
	"testing"

	"github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func two_region_directory(t *testing.T) *Region_directory {
	var ret, dir = New_region_directory(test_log, []nvmbdinterfaces.Nvm_region_info{
		flash_region(0x1000, 0x1000, 256, 4096),
		rram_region(0x2000, 0x800, 16, 512),
	})
	require.Nil(t, ret)
	return dir
}

func TestFindRegionContainment(t *testing.T) {
	var dir = two_region_directory(t)

	var tests = []struct {
		name   string
		addr   uint32
		length uint32
		want   uint32 // start address of the expected region, 0 for none
	}{
		{"below everything", 0x500, 0, 0},
		{"first byte of first region", 0x1000, 0, 0x1000},
		{"last byte of first region", 0x1fff, 0, 0x1000},
		{"whole first region", 0x1000, 0x1000, 0x1000},
		{"range ends exactly at boundary", 0x1800, 0x800, 0x1000},
		{"range straddles into second region", 0x1800, 0x801, 0},
		{"first byte of second region", 0x2000, 0, 0x2000},
		{"whole second region", 0x2000, 0x800, 0x2000},
		{"one past the end", 0x2800, 0, 0},
		{"runs off the end", 0x27f0, 0x20, 0},
		{"straddles from below", 0x0ff0, 0x20, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var region = dir.Find_region(tc.addr, tc.length)
			if tc.want == 0 {
				assert.Nil(t, region)
				return
			}
			require.NotNil(t, region)
			assert.Equal(t, tc.want, region.Start_address)
		})
	}
}

func TestFindRegionAtTopOfAddressSpaceDoesNotWrap(t *testing.T) {
	var ret, dir = New_region_directory(test_log, []nvmbdinterfaces.Nvm_region_info{
		flash_region(0xffff0000, 0x10000, 256, 4096),
	})
	require.Nil(t, ret)

	assert.NotNil(t, dir.Find_region(0xfffffff0, 0x10))
	// addr+length wraps to 0x10 in 32 bits, it must not look like it fits.
	assert.Nil(t, dir.Find_region(0xfffffff0, 0x20))
}

func TestNewRegionDirectorySortsTable(t *testing.T) {
	var ret, dir = New_region_directory(test_log, []nvmbdinterfaces.Nvm_region_info{
		rram_region(0x2000, 0x800, 16, 512),
		flash_region(0x1000, 0x1000, 256, 4096),
	})
	require.Nil(t, ret)

	var regions = dir.Get_regions()
	require.Len(t, regions, 2)
	assert.Equal(t, uint32(0x1000), regions[0].Start_address)
	assert.Equal(t, uint32(0x2000), regions[1].Start_address)
}

func TestNewRegionDirectoryRejectsBadTables(t *testing.T) {
	var tests = []struct {
		name    string
		regions []nvmbdinterfaces.Nvm_region_info
	}{
		{"overlap", []nvmbdinterfaces.Nvm_region_info{
			flash_region(0x1000, 0x1000, 256, 4096),
			flash_region(0x1800, 0x1000, 256, 4096),
		}},
		{"zero size", []nvmbdinterfaces.Nvm_region_info{
			flash_region(0x1000, 0, 256, 4096),
		}},
		{"past 4g", []nvmbdinterfaces.Nvm_region_info{
			flash_region(0xfffff000, 0x2000, 256, 4096),
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ret, dir = New_region_directory(test_log, tc.regions)
			require.NotNil(t, ret)
			assert.Equal(t, ERR_INVALID_INPUT, ret.Get_errcode())
			assert.Nil(t, dir)
		})
	}
}

func TestRegionDirectoryIsACopy(t *testing.T) {
	var regions = []nvmbdinterfaces.Nvm_region_info{flash_region(0x1000, 0x1000, 256, 4096)}
	var ret, dir = New_region_directory(test_log, regions)
	require.Nil(t, ret)

	regions[0].Start_address = 0x9000
	assert.NotNil(t, dir.Find_region(0x1000, 0))
	assert.Nil(t, dir.Find_region(0x9000, 0))
}

func TestRegionDirectoryUsesHalLookup(t *testing.T) {
	var hal = &fake_region_lookup_hal{fake_nvm_hal: new_fake_nvm_hal(flash_region(0x1000, 0x1000, 256, 4096))}
	var ret, dir = New_region_directory(test_log, hal.regions)
	require.Nil(t, ret)
	dir.Set_lookup(hal)

	assert.NotNil(t, dir.Find_region(0x1000, 0x100))
	assert.Nil(t, dir.Find_region(0x1f00, 0x200))
	assert.Equal(t, 2, hal.lookups)
}
