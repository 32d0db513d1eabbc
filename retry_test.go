// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package arena_test

import (
	"code.hybscloud.com/arena"
	"code.hybscloud.com/iox"
)

// spinUntilSuccess calls op until it reports Success, backing off between
// attempts with the same code.hybscloud.com/iox idiom the teacher's own
// test suite uses around its lfq.Enqueue/Dequeue retry loops.
func spinUntilSuccess(op func() arena.Result) {
	backoff := iox.Backoff{}
	for op() != arena.Success {
		backoff.Wait()
	}
}
