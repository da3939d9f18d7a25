// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

/* This module handles the single threaded shuttling of a list of operation requests to the
block storage device it is passed. one request at a time, in order, and the first one that fails
stops the whole list. */

package nvmbdlib

import (
	"strings"

	"github.com/nixomose/nixomosegotools/tools"
	"github.com/nixomose/nvmbdgo/nvmbdlib/nvmbdinterfaces"
)

type Operation_kind int

const (
	OPERATION_READ Operation_kind = iota
	OPERATION_PROGRAM
	OPERATION_ERASE
	OPERATION_PROGRAM_NB
	OPERATION_ERASE_NB
	OPERATION_UPDATE // erase first if the memory needs it, then program.
)

var operation_names = map[Operation_kind]string{
	OPERATION_READ:       "read",
	OPERATION_PROGRAM:    "program",
	OPERATION_ERASE:      "erase",
	OPERATION_PROGRAM_NB: "program_nb",
	OPERATION_ERASE_NB:   "erase_nb",
	OPERATION_UPDATE:     "update",
}

func (k Operation_kind) String() string {
	if name, ok := operation_names[k]; ok {
		return name
	}
	return "unknown"
}

func Parse_operation_kind(log *tools.Nixomosetools_logger, name string) (tools.Ret, Operation_kind) {
	var lower = strings.ToLower(strings.TrimSpace(name))
	for k, v := range operation_names {
		if v == lower {
			return nil, k
		}
	}
	return tools.ErrorWithCode(log, ERR_INVALID_INPUT, "unknown operation: ", name), OPERATION_READ
}

type Operation struct {
	Kind   Operation_kind
	Addr   uint32
	Length uint32
	Data   []byte // what to program, or where the read ends up.
}

type Operation_runner struct {
	m_log    *tools.Nixomosetools_logger
	m_device nvmbdinterfaces.Block_storage // interfaces in go are pointers, never forget that.
}

func New_operation_runner(log *tools.Nixomosetools_logger, device nvmbdinterfaces.Block_storage) Operation_runner {
	var o Operation_runner
	o.m_log = log
	o.m_device = device
	return o
}

// Run returns the index of the request that failed along with its error, or len(ops) and nil.
func (this *Operation_runner) Run(ops []Operation) (tools.Ret, int) {
	for i := range ops {
		var ret = this.Run_one(&ops[i])
		if ret != nil {
			this.m_log.Error("operation ", i, " (", ops[i].Kind.String(), " at ", ops[i].Addr, " length ", ops[i].Length,
				") failed, not running the rest: ", ret.Get_errmsg())
			return ret, i
		}
	}
	return nil, len(ops)
}

func (this *Operation_runner) check_range(op *Operation) tools.Ret {
	// only backends that know their own extent can check this, the rest find out from the hardware.
	if !this.m_device.Get_capabilities().Has(nvmbdinterfaces.CAP_IS_IN_RANGE) {
		return nil
	}
	var ret, in_range = this.m_device.Is_in_range(op.Addr, op.Length)
	if ret != nil {
		return ret
	}
	if !in_range {
		return tools.ErrorWithCode(this.m_log, ERR_NOT_IN_RANGE, op.Kind.String(), " at ", op.Addr, " length ", op.Length,
			" is not in range of this device.")
	}
	return nil
}

func (this *Operation_runner) Run_one(op *Operation) tools.Ret {
	var ret = this.check_range(op)
	if ret != nil {
		return ret
	}

	switch op.Kind {
	case OPERATION_READ:
		{
			if len(op.Data) < int(op.Length) {
				op.Data = make([]byte, op.Length)
			}
			ret = this.m_device.Read(op.Addr, op.Length, op.Data)
		}
	case OPERATION_PROGRAM:
		{
			ret = this.m_device.Program(op.Addr, op.Length, op.Data)
		}
	case OPERATION_ERASE:
		{
			ret = this.m_device.Erase(op.Addr, op.Length)
		}
	case OPERATION_PROGRAM_NB:
		{
			ret = this.m_device.Program_nb(op.Addr, op.Length, op.Data)
		}
	case OPERATION_ERASE_NB:
		{
			ret = this.m_device.Erase_nb(op.Addr, op.Length)
		}
	case OPERATION_UPDATE:
		{
			if this.m_device.Is_erase_required(op.Addr, op.Length) {
				this.m_log.Debug("erasing ", op.Length, " bytes at ", op.Addr, " before programming.")
				ret = this.m_device.Erase(op.Addr, op.Length)
				if ret != nil {
					return ret
				}
			}
			ret = this.m_device.Program(op.Addr, op.Length, op.Data)
		}
	default:
		{
			ret = tools.ErrorWithCode(this.m_log, ERR_INVALID_INPUT, "unsupported operation: ", int(op.Kind))
		}
	}
	return ret
}
