// SPDX-License-Identifier: LGPL-2.1
// Copyright (C) 2021-2022 stu mark

package nvmbdlib

import (
	"testing"

	"github.com/nixomose/nixomosegotools/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunChunkedRejectsBadLength(t *testing.T) {
	var calls = 0
	var count = func(chunk_addr uint32, offset uint32) tools.Ret {
		calls++
		return nil
	}

	var ret = Run_chunked(test_log, 0x1000, 300, 256, count)
	require.NotNil(t, ret)
	assert.Equal(t, ERR_INVALID_SIZE, ret.Get_errcode())

	ret = Run_chunked(test_log, 0x1000, 256, 0, count)
	require.NotNil(t, ret)
	assert.Equal(t, ERR_INVALID_SIZE, ret.Get_errcode())

	assert.Equal(t, 0, calls)
}

func TestRunChunkedWalksEveryGranule(t *testing.T) {
	var addrs []uint32
	var offsets []uint32
	var ret = Run_chunked(test_log, 0x1000, 4*256, 256, func(chunk_addr uint32, offset uint32) tools.Ret {
		addrs = append(addrs, chunk_addr)
		offsets = append(offsets, offset)
		return nil
	})
	require.Nil(t, ret)
	assert.Equal(t, []uint32{0x1000, 0x1100, 0x1200, 0x1300}, addrs)
	assert.Equal(t, []uint32{0, 0x100, 0x200, 0x300}, offsets)
}

func TestRunChunkedZeroLengthDoesNothing(t *testing.T) {
	var calls = 0
	var ret = Run_chunked(test_log, 0x1000, 0, 256, func(chunk_addr uint32, offset uint32) tools.Ret {
		calls++
		return nil
	})
	assert.Nil(t, ret)
	assert.Equal(t, 0, calls)
}

func TestRunChunkedStopsAtFirstFailure(t *testing.T) {
	var failure = hw_error("program failed on chunk 2")
	var calls = 0
	var ret = Run_chunked(test_log, 0x1000, 3*256, 256, func(chunk_addr uint32, offset uint32) tools.Ret {
		calls++
		if calls == 2 {
			return failure
		}
		return nil
	})
	// chunk 1 stays programmed, nothing tells the caller that, the range is just indeterminate now.
	assert.Equal(t, 2, calls)
	assert.Equal(t, failure, ret)
}

func TestRunChunkedNbPollsEachChunkToCompletion(t *testing.T) {
	var outstanding = false
	var polls = 0
	var starts = 0
	var ret = Run_chunked_nb(test_log, 0, 3*16, 16, func(chunk_addr uint32, offset uint32) tools.Ret {
		require.False(t, outstanding, "started a chunk while the last one was still running")
		starts++
		outstanding = true
		polls = 0
		return nil
	}, func() bool {
		polls++
		if polls < 4 {
			return false
		}
		outstanding = false
		return true
	})
	require.Nil(t, ret)
	assert.Equal(t, 3, starts)
	assert.False(t, outstanding)
}

func TestRunChunkedNbDoesNotPollAfterFailedStart(t *testing.T) {
	var failure = hw_error("start failed")
	var polls = 0
	var ret = Run_chunked_nb(test_log, 0, 2*16, 16, func(chunk_addr uint32, offset uint32) tools.Ret {
		return failure
	}, func() bool {
		polls++
		return true
	})
	assert.Equal(t, failure, ret)
	assert.Equal(t, 0, polls)
}
