// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package storage

import (
	"os"
	"strings"

	"github.com/nixomose/nixomosegotools/tools"
	"github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"
	"gopkg.in/yaml.v3"
)

/* the geometry file says what kind of part we're pretending to be and how it's laid out.
   yaml takes 0x numbers so addresses can be written the way they show up in a datasheet.

   backend: on_chip_nvm
   non_blocking: true
   regions:
     - { start: 0x1000, size: 0x1000, block_size: 256, sector_size: 4096, erase_value: 0xff, erase_required: true, type: flash }
*/

type Geometry_region struct {
	Start          uint32 `yaml:"start"`
	Size           uint32 `yaml:"size"`
	Block_size     uint32 `yaml:"block_size"`
	Sector_size    uint32 `yaml:"sector_size"`
	Erase_value    uint8  `yaml:"erase_value"`
	Erase_required bool   `yaml:"erase_required"`
	Type           string `yaml:"type"`
}

type Geometry_serial struct {
	Size         uint32 `yaml:"size"`
	Program_size uint32 `yaml:"program_size"`
	Erase_size   uint32 `yaml:"erase_size"`
}

type Geometry_direct struct {
	Base     uint32 `yaml:"base"`
	Size     uint32 `yaml:"size"`
	Row_size uint32 `yaml:"row_size"`
}

type Geometry struct {
	Backend             string            `yaml:"backend"`
	Non_blocking        bool              `yaml:"non_blocking"`
	Polls_per_operation int               `yaml:"polls_per_operation"`
	Regions             []Geometry_region `yaml:"regions,omitempty"`
	Serial              Geometry_serial   `yaml:"serial,omitempty"`
	Direct              Geometry_direct   `yaml:"direct,omitempty"`
}

var backend_kinds = []nvmbdinterfaces.Backend_kind{
	nvmbdinterfaces.BACKEND_ON_CHIP_NVM,
	nvmbdinterfaces.BACKEND_SERIAL_FLASH,
	nvmbdinterfaces.BACKEND_SERIAL_MEMORY,
	nvmbdinterfaces.BACKEND_DIRECT_FLASH,
}

// Default_geometry is what you get without a geometry file, one flash region and one rram region.
func Default_geometry() Geometry {
	return Geometry{
		Backend:             nvmbdinterfaces.BACKEND_ON_CHIP_NVM.String(),
		Polls_per_operation: DEFAULT_POLLS_PER_OPERATION,
		Regions: []Geometry_region{
			{Start: 0x1000, Size: 0x1000, Block_size: 256, Sector_size: 4096, Erase_value: 0xff, Erase_required: true, Type: "flash"},
			{Start: 0x2000, Size: 0x800, Block_size: 16, Sector_size: 512, Erase_value: 0x00, Erase_required: false, Type: "rram"},
		},
	}
}

func Load_geometry(log *tools.Nixomosetools_logger, filename string) (tools.Ret, *Geometry) {
	var data, err = os.ReadFile(filename)
	if err != nil {
		return tools.Error(log, "unable to read geometry file: ", filename, " error: ", err), nil
	}
	return Parse_geometry(log, data)
}

func Parse_geometry(log *tools.Nixomosetools_logger, data []byte) (tools.Ret, *Geometry) {
	var g Geometry
	if err := yaml.Unmarshal(data, &g); err != nil {
		return tools.ErrorWithCode(log, ERR_BAD_GEOMETRY, "unable to parse geometry: ", err), nil
	}
	if g.Polls_per_operation == 0 {
		g.Polls_per_operation = DEFAULT_POLLS_PER_OPERATION
	}
	var ret = g.Validate(log)
	if ret != nil {
		return ret, nil
	}
	return nil, &g
}

func (this *Geometry) Marshal(log *tools.Nixomosetools_logger) (tools.Ret, []byte) {
	var data, err = yaml.Marshal(this)
	if err != nil {
		return tools.Error(log, "unable to marshal geometry: ", err), nil
	}
	return nil, data
}

func (this *Geometry) Get_backend_kind(log *tools.Nixomosetools_logger) (tools.Ret, nvmbdinterfaces.Backend_kind) {
	var name = strings.ToLower(strings.TrimSpace(this.Backend))
	for _, kind := range backend_kinds {
		if kind.String() == name {
			return nil, kind
		}
	}
	return tools.ErrorWithCode(log, ERR_BAD_GEOMETRY, "unknown backend: ", this.Backend), 0
}

func (this *Geometry_region) Get_nvm_type(log *tools.Nixomosetools_logger) (tools.Ret, nvmbdinterfaces.Nvm_type) {
	switch strings.ToLower(strings.TrimSpace(this.Type)) {
	case "flash":
		return nil, nvmbdinterfaces.NVM_TYPE_FLASH
	case "rram":
		return nil, nvmbdinterfaces.NVM_TYPE_RRAM
	}
	return tools.ErrorWithCode(log, ERR_BAD_GEOMETRY, "unknown region type: ", this.Type), 0
}

// Get_region_info turns the yaml regions into what the nvm hal reports.
func (this *Geometry) Get_region_info(log *tools.Nixomosetools_logger) (tools.Ret, []nvmbdinterfaces.Nvm_region_info) {
	var out = make([]nvmbdinterfaces.Nvm_region_info, 0, len(this.Regions))
	for _, r := range this.Regions {
		var ret, t = r.Get_nvm_type(log)
		if ret != nil {
			return ret, nil
		}
		out = append(out, nvmbdinterfaces.Nvm_region_info{
			Start_address:     r.Start,
			Size:              r.Size,
			Block_size:        r.Block_size,
			Sector_size:       r.Sector_size,
			Erase_value:       r.Erase_value,
			Is_erase_required: r.Erase_required,
			Nvm_type:          t,
		})
	}
	return nil, out
}

func (this *Geometry) Validate(log *tools.Nixomosetools_logger) tools.Ret {
	var ret, kind = this.Get_backend_kind(log)
	if ret != nil {
		return ret
	}
	if this.Polls_per_operation < 0 {
		return tools.ErrorWithCode(log, ERR_BAD_GEOMETRY, "polls_per_operation can't be negative: ", this.Polls_per_operation)
	}
	switch kind {
	case nvmbdinterfaces.BACKEND_ON_CHIP_NVM:
		return this.validate_regions(log)
	case nvmbdinterfaces.BACKEND_SERIAL_FLASH, nvmbdinterfaces.BACKEND_SERIAL_MEMORY:
		var s = this.Serial
		if s.Size == 0 || s.Program_size == 0 || s.Erase_size == 0 {
			return tools.ErrorWithCode(log, ERR_BAD_GEOMETRY, "serial geometry needs size, program_size and erase_size.")
		}
		if s.Size%s.Erase_size != 0 {
			return tools.ErrorWithCode(log, ERR_BAD_GEOMETRY, "serial size ", s.Size, " is not a multiple of erase_size ", s.Erase_size)
		}
	case nvmbdinterfaces.BACKEND_DIRECT_FLASH:
		var d = this.Direct
		if d.Size == 0 || d.Row_size == 0 || d.Size%d.Row_size != 0 {
			return tools.ErrorWithCode(log, ERR_BAD_GEOMETRY, "direct flash size ", d.Size, " must be a non zero multiple of row_size ", d.Row_size)
		}
		if uint64(d.Base)+uint64(d.Size) > 1<<32 {
			return tools.ErrorWithCode(log, ERR_BAD_GEOMETRY, "direct flash at ", d.Base, " size ", d.Size, " runs off the end of the address space.")
		}
	}
	return nil
}

func (this *Geometry) validate_regions(log *tools.Nixomosetools_logger) tools.Ret {
	if len(this.Regions) == 0 {
		return tools.ErrorWithCode(log, ERR_BAD_GEOMETRY, "on chip nvm needs at least one region.")
	}
	for _, r := range this.Regions {
		var ret, t = r.Get_nvm_type(log)
		if ret != nil {
			return ret
		}
		if r.Block_size == 0 || r.Size%r.Block_size != 0 {
			return tools.ErrorWithCode(log, ERR_BAD_GEOMETRY, "region at ", r.Start, " size ", r.Size,
				" is not a multiple of block_size ", r.Block_size)
		}
		if t == nvmbdinterfaces.NVM_TYPE_FLASH && (r.Sector_size == 0 || r.Size%r.Sector_size != 0 || r.Sector_size%r.Block_size != 0) {
			return tools.ErrorWithCode(log, ERR_BAD_GEOMETRY, "flash region at ", r.Start, " has a bad sector_size ", r.Sector_size)
		}
	}
	/* overlaps and address space overflow get caught when the block storage builds its directory
	   from what the hal reports, same as it would for real hardware. */
	return nil
}
