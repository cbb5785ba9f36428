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

package ion

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
)

// A Catalog resolves shared symbol tables by name and version.
type Catalog interface {
	// FindExact returns the table with the given name and version, or nil.
	FindExact(name string, version int) SharedSymbolTable
	// FindLatest returns the highest-version table with the given name, or nil.
	FindLatest(name string) SharedSymbolTable
}

// A MutableCatalog is a Catalog whose contents can change.
type MutableCatalog interface {
	Catalog

	// Add registers a shared symbol table, replacing any table with the
	// same name and version.
	Add(sst SharedSymbolTable)
	// Remove drops the table with the given name and version, reporting
	// whether it was present.
	Remove(name string, version int) bool

	// Tables returns the catalog's contents ordered by name then version.
	Tables() []SharedSymbolTable
}

type basicCatalog struct {
	ssts   map[string]SharedSymbolTable
	latest map[string]SharedSymbolTable
}

// NewCatalog creates a catalog containing the given shared symbol tables.
func NewCatalog(ssts ...SharedSymbolTable) MutableCatalog {
	cat := &basicCatalog{
		ssts:   make(map[string]SharedSymbolTable),
		latest: make(map[string]SharedSymbolTable),
	}
	for _, sst := range ssts {
		cat.Add(sst)
	}
	return cat
}

func catkey(name string, version int) string {
	return fmt.Sprintf("%v/%v", name, version)
}

func (c *basicCatalog) Add(sst SharedSymbolTable) {
	c.ssts[catkey(sst.Name(), sst.Version())] = sst

	cur, ok := c.latest[sst.Name()]
	if !ok || sst.Version() > cur.Version() {
		c.latest[sst.Name()] = sst
	}
}

func (c *basicCatalog) Remove(name string, version int) bool {
	key := catkey(name, version)
	if _, ok := c.ssts[key]; !ok {
		return false
	}
	delete(c.ssts, key)

	// Recompute the latest entry for the name.
	delete(c.latest, name)
	for _, sst := range c.ssts {
		if sst.Name() != name {
			continue
		}
		cur, ok := c.latest[name]
		if !ok || sst.Version() > cur.Version() {
			c.latest[name] = sst
		}
	}
	return true
}

func (c *basicCatalog) FindExact(name string, version int) SharedSymbolTable {
	return c.ssts[catkey(name, version)]
}

func (c *basicCatalog) FindLatest(name string) SharedSymbolTable {
	return c.latest[name]
}

// Tables returns the catalog's contents ordered by name then version.
func (c *basicCatalog) Tables() []SharedSymbolTable {
	ssts := maps.Values(c.ssts)
	sort.Slice(ssts, func(i, j int) bool {
		if ssts[i].Name() != ssts[j].Name() {
			return ssts[i].Name() < ssts[j].Name()
		}
		return ssts[i].Version() < ssts[j].Version()
	})
	return ssts
}

// findBestMatch resolves an import declaration against a catalog: the exact
// version when present, else the highest version of the same name, else an
// all-unknown placeholder. The declared maxID always bounds the view; a
// declaration without one (maxID < 0) requires an exact match.
func findBestMatch(cat Catalog, name string, version int, maxID int64) (SharedSymbolTable, error) {
	var sst SharedSymbolTable
	if cat != nil {
		sst = cat.FindExact(name, version)
		if sst == nil {
			sst = cat.FindLatest(name)
		}
	}

	if maxID < 0 {
		if sst == nil || sst.Version() != version {
			return nil, &SymbolTableError{
				fmt.Sprintf("import of %v/%v has no max_id and no exact catalog match", name, version),
			}
		}
		return sst, nil
	}

	if sst == nil {
		return &unresolvedSST{name: name, version: version, maxID: uint64(maxID)}, nil
	}
	return sst.Adjust(uint64(maxID)), nil
}
