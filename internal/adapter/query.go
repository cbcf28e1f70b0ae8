// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
)

// Query builds url.Values from params, skipping nil, nil-pointer and empty
// string values. Zero numbers are kept; callers drop them by not passing them.
func Query(params map[string]any) url.Values {
	values := url.Values{}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := params[k]
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				continue
			}
			v = rv.Elem().Interface()
		}

		s := fmt.Sprint(v)
		if s == "" {
			continue
		}
		values.Set(k, s)
	}

	return values
}
