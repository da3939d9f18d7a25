// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

/* These functions break a program or erase of some multiple of the granule size into one
hardware call per granule, in order, and stop at the first one that fails. */

package nvmbdlib

import (
	"github.com/nixomose/nixomosegotools/tools"
)

// Chunk_func does one granule, chunk_addr is addr+offset and offset is where in the caller's buffer it starts.
type Chunk_func func(chunk_addr uint32, offset uint32) tools.Ret

// Complete_func is what we spin on after starting a non blocking chunk.
type Complete_func func() bool

func Check_granule(log *tools.Nixomosetools_logger, length uint32, granule uint32) tools.Ret {
	// zero granule is what you get for an address in no region, so this catches that too.
	if granule == 0 {
		return tools.ErrorWithCode(log, ERR_INVALID_SIZE, "unable to determine operation size, granule is zero.")
	}
	if length%granule != 0 {
		return tools.ErrorWithCode(log, ERR_INVALID_SIZE, "length ", length, " is not a multiple of the granule size ", granule)
	}
	return nil
}

func Run_chunked(log *tools.Nixomosetools_logger, addr uint32, length uint32, granule uint32, chunk_fn Chunk_func) tools.Ret {
	var ret = Check_granule(log, length, granule)
	if ret != nil {
		return ret
	}

	/* no rollback. if chunk 3 of 5 fails, 1 and 2 are done and the caller gets chunk 3's error
	   with no way of knowing how far we got. the whole range is suspect after that. */
	for offset := u64(0); offset < u64(length); offset += u64(granule) {
		ret = chunk_fn(addr+u32(offset), u32(offset))
		if ret != nil {
			return ret
		}
	}
	return nil
}

func Run_chunked_nb(log *tools.Nixomosetools_logger, addr uint32, length uint32, granule uint32, start_fn Chunk_func,
	is_complete Complete_func) tools.Ret {
	/* the hardware only does one thing at a time so non blocking here still means we start one
	   chunk and spin until the hardware says it's done before we start the next one. the caller
	   doesn't get control back until everything is durable or something failed. */
	return Run_chunked(log, addr, length, granule, func(chunk_addr uint32, offset uint32) tools.Ret {
		var ret = start_fn(chunk_addr, offset)
		if ret != nil {
			return ret // nothing was started so there's nothing to wait for.
		}
		for !is_complete() {
		}
		return nil
	})
}
