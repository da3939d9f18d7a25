// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package storage

import "syscall"

/* what the simulated hardware says when it's unhappy. these come back through the block storage
adapters untouched, same as a real driver's errors would. */

const ERR_HW_FAULT int = int(syscall.EIO)      // injected failure
const ERR_HW_ADDRESS int = int(syscall.EFAULT) // nothing mapped there
const ERR_HW_ALIGN int = int(syscall.EINVAL)   // the driver doesn't take unaligned requests
const ERR_HW_NOT_INIT int = int(syscall.ENODEV)
const ERR_BAD_IMAGE int = int(syscall.EBADMSG)
const ERR_BAD_GEOMETRY int = int(syscall.EINVAL)

const DEFAULT_POLLS_PER_OPERATION int = 3

/* fault injection, shared by all the sims. the nth call (1 based) of a kind fails, 0 means never. */
type Fault_injector struct {
	m_fail_program_on int
	m_fail_erase_on   int
	m_program_count   int
	m_erase_count     int
}

func (this *Fault_injector) Fail_program_on(n int) {
	this.m_fail_program_on = n
	this.m_program_count = 0
}

func (this *Fault_injector) Fail_erase_on(n int) {
	this.m_fail_erase_on = n
	this.m_erase_count = 0
}

func (this *Fault_injector) next_program_fails() bool {
	this.m_program_count++
	return this.m_fail_program_on != 0 && this.m_program_count == this.m_fail_program_on
}

func (this *Fault_injector) next_erase_fails() bool {
	this.m_erase_count++
	return this.m_fail_erase_on != 0 && this.m_erase_count == this.m_fail_erase_on
}

func (this *Fault_injector) Get_program_count() int {
	return this.m_program_count
}

func (this *Fault_injector) Get_erase_count() int {
	return this.m_erase_count
}
