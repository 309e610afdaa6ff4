// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package circular provides sliding-window data structures which are
// frequently useful when joining two approximately time-ordered streams, such
// as an alignment stream and the sequencing summary describing the same reads.
package circular
