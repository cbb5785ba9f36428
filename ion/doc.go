/*
 * Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License").
 * You may not use this file except in compliance with the License.
 * A copy of the License is located at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * or in the "license" file accompanying this file. This file is distributed
 * on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
 * express or implied. See the License for the specific language governing
 * permissions and limitations under the License.
 */

// Package ion implements the Ion data format: a richly-typed, self-describing
// serialization system with isomorphic binary and text encodings.
//
// The package provides Writers for both encodings, a binary Reader, and the
// symbol-table machinery (shared tables, local tables, and catalogs) that the
// binary encoding uses to intern repeated strings into compact integer IDs.
//
//	buf := bytes.Buffer{}
//	w := ion.NewBinaryWriter(&buf)
//	w.BeginStruct()
//	w.FieldNameString("hello")
//	w.WriteString("world")
//	w.EndStruct()
//	if err := w.Finish(); err != nil {
//		return err
//	}
//
// See the extractor package for streaming path-based matching over a Reader.
package ion
