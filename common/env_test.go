// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common_test

import (
	"reflect"
	"testing"

	"github.com/popgensims/sweep/common"
)

func stringSliceToSet(sl []string) map[string]struct{} {
	ss := make(map[string]struct{})
	for _, s := range sl {
		ss[s] = struct{}{}
	}
	return ss
}

func TestEnv(t *testing.T) {
	tryLookup := func(t *testing.T, env *common.Env, try, expect string) {
		if v, ok := env.Lookup(try); !ok {
			t.Fatalf("expected to find variable %q", try)
		} else if v != expect {
			t.Fatalf("expected to find value %q for %q, instead got %q", v, try, expect)
		}
	}
	tryBadLookup := func(t *testing.T, env *common.Env, try string) {
		if v, ok := env.Lookup(try); ok {
			t.Fatalf("expected to not find variable %q, got %q", try, v)
		}
	}
	tryCreate := func(t *testing.T, args ...string) *common.Env {
		env, err := common.NewEnv(args...)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		return env
	}
	trySet := func(t *testing.T, env *common.Env, args ...string) *common.Env {
		env2, err := env.Set(args...)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		return env2
	}

	env := tryCreate(t, "SLIM_PATH=/opt/slim", "OMP_NUM_THREADS=1")

	t.Run("BadCreate", func(t *testing.T) {
		_, err := common.NewEnv("SLIM_PATH", "OMP_NUM_THREADS=1")
		if err == nil {
			t.Fatal("expected error due to bad input")
		}
	})
	t.Run("Lookup", func(t *testing.T) {
		tryLookup(t, env, "SLIM_PATH", "/opt/slim")
	})
	t.Run("EmptyLookup", func(t *testing.T) {
		tryBadLookup(t, env, "NOVAR")
	})
	t.Run("BadSet", func(t *testing.T) {
		_, err := env.Set("BADVAR")
		if err == nil {
			t.Fatal("expected error due to bad input")
		}
	})
	exp := stringSliceToSet([]string{"SLIM_PATH=/usr/bin/slim", "PYTHONPATH=/opt/shic", "OMP_NUM_THREADS=1"})
	t.Run("Set", func(t *testing.T) {
		env2 := trySet(t, env, "SLIM_PATH=/usr/bin/slim", "PYTHONPATH=/opt/shic")
		tryLookup(t, env2, "SLIM_PATH", "/usr/bin/slim")
		tryLookup(t, env2, "PYTHONPATH", "/opt/shic")
		tryLookup(t, env2, "OMP_NUM_THREADS", "1")
		tryLookup(t, env, "SLIM_PATH", "/opt/slim")
		tryBadLookup(t, env, "PYTHONPATH")
		l := stringSliceToSet(env2.Collapse())
		if !reflect.DeepEqual(l, exp) {
			t.Fatalf("on collapse got %v, expected %v", l, exp)
		}
	})
	t.Run("DeepSet", func(t *testing.T) {
		env2 := trySet(t, env, "PYTHONPATH=/opt/shic")
		env3 := trySet(t, env2, "SLIM_PATH=/usr/bin/slim")
		tryLookup(t, env3, "SLIM_PATH", "/usr/bin/slim")
		tryLookup(t, env3, "OMP_NUM_THREADS", "1")
		tryLookup(t, env3, "PYTHONPATH", "/opt/shic")
		tryLookup(t, env2, "PYTHONPATH", "/opt/shic")
		tryLookup(t, env2, "OMP_NUM_THREADS", "1")
		tryLookup(t, env2, "SLIM_PATH", "/opt/slim")
		tryLookup(t, env, "SLIM_PATH", "/opt/slim")
		tryBadLookup(t, env, "PYTHONPATH")
		l := stringSliceToSet(env3.Collapse())
		if !reflect.DeepEqual(l, exp) {
			t.Fatalf("on collapse got %v, expected %v", l, exp)
		}
	})
	t.Run("Prefix", func(t *testing.T) {
		env2 := env.Prefix("OMP_NUM_THREADS", "2")
		tryLookup(t, env2, "OMP_NUM_THREADS", "21")
		tryLookup(t, env, "OMP_NUM_THREADS", "1")
	})
}
