// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

// Version is the suite version, which doubles as the default version
// of the asset archives fetched by 'sweep get'. Asset archives are
// versioned in lockstep with releases so a given release always knows
// which maps and annotations it was validated against.
const Version = "v0.4.1"
