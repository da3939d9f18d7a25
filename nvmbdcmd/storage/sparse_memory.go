// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package storage

import "github.com/nixomose/nixomosegotools/tools"

type Sparse_memory struct {
	/* the simulated parts keep their contents here. like the ramdisk this came from, pages that
	   were never written aren't stored at all, they just read back as the erase value, so a 16 meg
	   serial flash doesn't cost 16 meg until somebody fills it. */

	m_log         *tools.Nixomosetools_logger
	m_page_size   uint32
	m_erase_value uint8
	m_pages       map[uint32][]byte // keyed by page aligned absolute address
}

func New_sparse_memory(log *tools.Nixomosetools_logger, page_size uint32, erase_value uint8) *Sparse_memory {
	var ret Sparse_memory
	ret.m_log = log
	ret.m_page_size = page_size
	ret.m_erase_value = erase_value
	ret.m_pages = make(map[uint32][]byte)
	return &ret
}

func (this *Sparse_memory) page_for(addr uint32) (page_addr uint32, offset uint32) {
	offset = addr % this.m_page_size
	return addr - offset, offset
}

func (this *Sparse_memory) erased_page() []byte {
	var p = make([]byte, this.m_page_size)
	for i := range p {
		p[i] = this.m_erase_value
	}
	return p
}

func (this *Sparse_memory) Read(addr uint32, dataout []byte) {
	/* the request can start and end anywhere, so break it up into pages and copy the right part
	   of each one into the caller's buffer at the right spot. */
	var start_copy_location = 0
	for start_copy_location < len(dataout) {
		var page_addr, offset = this.page_for(addr + uint32(start_copy_location))
		var data, found = this.m_pages[page_addr]
		if found == false {
			data = this.erased_page()
		}
		var copied int = copy(dataout[start_copy_location:], data[offset:])
		start_copy_location += copied
	}
}

// Write stores data at addr, if and_bits is set it can only clear bits like real flash does.
func (this *Sparse_memory) Write(addr uint32, data []byte, and_bits bool) {
	var start_copy_location = 0
	for start_copy_location < len(data) {
		var page_addr, offset = this.page_for(addr + uint32(start_copy_location))
		var page, found = this.m_pages[page_addr]
		if found == false {
			page = this.erased_page()
			this.m_pages[page_addr] = page
		}
		var end = int(this.m_page_size)
		if end-int(offset) > len(data)-start_copy_location {
			end = int(offset) + len(data) - start_copy_location
		}
		for i := int(offset); i < end; i++ {
			var b = data[start_copy_location]
			if and_bits {
				b &= page[i]
			}
			page[i] = b
			start_copy_location++
		}
	}
}

func (this *Sparse_memory) Erase(addr uint32, length uint32) {
	var pos uint64 = uint64(addr)
	var end uint64 = uint64(addr) + uint64(length)
	for pos < end {
		var page_addr, offset = this.page_for(uint32(pos))
		var in_page = uint64(this.m_page_size - offset)
		if in_page > end-pos {
			in_page = end - pos
		}
		if offset == 0 && in_page == uint64(this.m_page_size) {
			delete(this.m_pages, page_addr) // erased pages aren't stored.
		} else if page, found := this.m_pages[page_addr]; found {
			for i := uint64(offset); i < uint64(offset)+in_page; i++ {
				page[i] = this.m_erase_value
			}
		}
		pos += in_page
	}
}

func (this *Sparse_memory) Get_page_count() int {
	return len(this.m_pages)
}

// Get_pages is a copy of everything that's been written, for saving to an image.
func (this *Sparse_memory) Get_pages() map[uint32][]byte {
	var out = make(map[uint32][]byte, len(this.m_pages))
	for k, v := range this.m_pages {
		out[k] = append([]byte{}, v...)
	}
	return out
}

func (this *Sparse_memory) Set_pages(pages map[uint32][]byte) tools.Ret {
	var loaded = make(map[uint32][]byte, len(pages))
	for k, v := range pages {
		if k%this.m_page_size != 0 || uint32(len(v)) != this.m_page_size {
			return tools.ErrorWithCode(this.m_log, ERR_BAD_IMAGE, "page at ", k, " of ", len(v),
				" bytes doesn't fit page size ", this.m_page_size)
		}
		loaded[k] = append([]byte{}, v...)
	}
	this.m_pages = loaded
	return nil
}
