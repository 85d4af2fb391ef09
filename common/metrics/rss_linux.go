// Copyright 2025 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics

// Linux reports ru_maxrss in KiB.
const rssMultiplier = 1 << 10
