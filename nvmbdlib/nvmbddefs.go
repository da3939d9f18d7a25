// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package nvmbdlib

import (
	"syscall"

	"github.com/nixomose/nixomosegotools/tools"
)

type u8 = uint8
type u32 = uint32
type u64 = uint64

// read is direct memory access on everything we support so it's one word, always.
const READ_SIZE u32 = 1

const SERIAL_ERASE_VALUE u8 = 0xff // common erase value for flash based chips
const DIRECT_FLASH_ERASE_VALUE u8 = 0x00

/* error codes, these are what you get back in Get_errcode(). anything else came straight from
the hardware and we didn't touch it. */

const ERR_INVALID_INPUT int = int(syscall.EINVAL)
const ERR_INVALID_SIZE int = int(syscall.EMSGSIZE)
const ERR_NOT_SUPPORTED int = int(syscall.ENOTSUP)
const ERR_NOT_IN_RANGE int = int(syscall.ERANGE)

func not_supported(log *tools.Nixomosetools_logger, what string) tools.Ret {
	return tools.ErrorWithCode(log, ERR_NOT_SUPPORTED, what, " is not supported by this block storage device.")
}

func check_buffer(log *tools.Nixomosetools_logger, length u32, data []byte) tools.Ret {
	if u64(len(data)) < u64(length) {
		return tools.ErrorWithCode(log, ERR_INVALID_INPUT, "buffer of ", len(data), " bytes is too small for ", length, " bytes.")
	}
	return nil
}
