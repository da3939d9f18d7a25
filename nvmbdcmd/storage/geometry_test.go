// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nvm_geometry = `
backend: on_chip_nvm
non_blocking: true
polls_per_operation: 5
regions:
  - start: 0x1000
    size: 0x1000
    block_size: 256
    sector_size: 4096
    erase_value: 0xff
    erase_required: true
    type: flash
  - { start: 0x2000, size: 0x800, block_size: 16, type: RRAM }
`

func TestParseGeometryNvm(t *testing.T) {
	var ret, g = Parse_geometry(test_log, []byte(nvm_geometry))
	require.Nil(t, ret)
	assert.True(t, g.Non_blocking)
	assert.Equal(t, 5, g.Polls_per_operation)

	var regions []nvmbdinterfaces.Nvm_region_info
	ret, regions = g.Get_region_info(test_log)
	require.Nil(t, ret)
	require.Len(t, regions, 2)
	assert.Equal(t, nvmbdinterfaces.Nvm_region_info{Start_address: 0x1000, Size: 0x1000, Block_size: 256,
		Sector_size: 4096, Erase_value: 0xff, Is_erase_required: true, Nvm_type: nvmbdinterfaces.NVM_TYPE_FLASH}, regions[0])
	assert.Equal(t, nvmbdinterfaces.NVM_TYPE_RRAM, regions[1].Nvm_type)
	assert.Equal(t, uint32(0x2000), regions[1].Start_address)
}

func TestParseGeometryOtherBackends(t *testing.T) {
	var ret, g = Parse_geometry(test_log, []byte("backend: serial_flash\nserial: {size: 0x100000, program_size: 256, erase_size: 4096}\n"))
	require.Nil(t, ret)
	assert.Equal(t, DEFAULT_POLLS_PER_OPERATION, g.Polls_per_operation)
	var kind nvmbdinterfaces.Backend_kind
	ret, kind = g.Get_backend_kind(test_log)
	require.Nil(t, ret)
	assert.Equal(t, nvmbdinterfaces.BACKEND_SERIAL_FLASH, kind)

	ret, g = Parse_geometry(test_log, []byte("backend: direct_flash\ndirect: {base: 0x10000000, size: 0x8000, row_size: 512}\n"))
	require.Nil(t, ret)
	assert.Equal(t, uint32(0x10000000), g.Direct.Base)
}

func TestParseGeometryRejectsBadOnes(t *testing.T) {
	var tests = map[string]string{
		"unknown backend":    "backend: floppy\n",
		"no regions":         "backend: on_chip_nvm\n",
		"bad type":           "backend: on_chip_nvm\nregions: [{start: 0, size: 256, block_size: 256, type: eeprom}]\n",
		"block not multiple": "backend: on_chip_nvm\nregions: [{start: 0, size: 300, block_size: 256, type: rram}]\n",
		"flash no sector":    "backend: on_chip_nvm\nregions: [{start: 0, size: 256, block_size: 256, type: flash}]\n",
		"serial no sizes":    "backend: serial_memory\nserial: {size: 4096}\n",
		"direct wraps":       "backend: direct_flash\ndirect: {base: 0xffffff00, size: 0x200, row_size: 256}\n",
		"not yaml":           "backend: [on_chip_nvm\n",
	}
	for name, text := range tests {
		var ret, g = Parse_geometry(test_log, []byte(text))
		require.NotNil(t, ret, name)
		assert.Equal(t, ERR_BAD_GEOMETRY, ret.Get_errcode(), name)
		assert.Nil(t, g, name)
	}
}

func TestGeometryFileRoundTrip(t *testing.T) {
	var g = Default_geometry()
	var ret, data = g.Marshal(test_log)
	require.Nil(t, ret)

	var filename = filepath.Join(t.TempDir(), "geometry.yaml")
	require.NoError(t, os.WriteFile(filename, data, 0644))

	var loaded *Geometry
	ret, loaded = Load_geometry(test_log, filename)
	require.Nil(t, ret)
	assert.Equal(t, g, *loaded)

	ret, _ = Load_geometry(test_log, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotNil(t, ret)
}
