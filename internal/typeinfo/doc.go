// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package typeinfo reflects on structs carrying "db" tags and extracts the
// tagged field values as statement parameter values.
package typeinfo
