// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package errutil

import (
	"log/slog"
	"sort"

	"github.com/samber/oops"
)

// LogError reports a failure with whatever structure the error carries. For
// oops errors the code, domain, and each context entry become flat top-level
// attributes; context keys are emitted in sorted order so log lines are
// stable. Plain errors log as a single "error" attribute.
func LogError(logger *slog.Logger, msg string, err error) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		logger.Error(msg, "error", err)
		return
	}

	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil {
		attrs = append(attrs, "code", code)
	}
	if domain := oopsErr.Domain(); domain != "" {
		attrs = append(attrs, "domain", domain)
	}

	ctx := oopsErr.Context()
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, k, ctx[k])
	}

	logger.Error(msg, attrs...)
}
