// Package generate builds small synthetic forests for the p4mesh CLI's
// create command: deterministic test data exercising the same deflate,
// partition, and file-write paths a real mesh library's forest would.
package generate

/**
 * SPDX-License-Identifier: Apache-2.0
 */

import (
	"gopkg.in/yaml.v2"

	"github.com/vorteil/p4mesh/pkg/forest"
	"github.com/vorteil/p4mesh/pkg/vio"
)

// Config describes a synthetic forest: how many trees, how many cells each
// tree starts with, and how many ranks to partition it across.
type Config struct {
	Dim          int `yaml:"dim"`
	Trees        int `yaml:"trees"`
	CellsPerTree int `yaml:"cells_per_tree"`
	Ranks        int `yaml:"ranks"`
}

// DefaultConfig returns a small, cheap-to-write configuration.
func DefaultConfig() Config {
	return Config{Dim: 2, Trees: 4, CellsPerTree: 3, Ranks: 2}
}

// LoadConfig reads a YAML-encoded Config from path, lazily: the file is not
// opened until the first read, matching how the rest of this tree treats
// on-disk inputs it may never need to fully consume.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := vio.LazyOpen(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Build constructs a single-rank view of the whole forest described by cfg:
// Trees cells-per-tree cells each, coordinates derived deterministically
// from tree and cell index so the output is reproducible across runs.
func Build(cfg Config) (*forest.Forest, []int64, error) {
	dim := forest.Dim(cfg.Dim)

	f := &forest.Forest{
		Dim:            dim,
		Connectivity:   forest.GridConnectivity(cfg.Trees),
		Rank:           0,
		Size:           1,
		FirstLocalTree: 0,
		LastLocalTree:  cfg.Trees - 1,
		Trees:          make([]*forest.Tree, cfg.Trees),
	}

	pertree := make([]int64, cfg.Trees+1)
	var total int64
	for t := 0; t < cfg.Trees; t++ {
		tree := &forest.Tree{Cells: make([]forest.Cell, cfg.CellsPerTree)}
		for i := 0; i < cfg.CellsPerTree; i++ {
			level := uint8(i % (forest.MaxLevel + 1))
			tree.Cells[i] = forest.Cell{
				Coords: [3]int32{int32(t), int32(i), 0},
				Level:  level,
			}
			tree.LevelCounts[level]++
			if level > tree.MaxLevel {
				tree.MaxLevel = level
			}
		}
		if cfg.CellsPerTree > 0 {
			tree.FirstDesc = forest.IdentityDescendant(tree.Cells[0])
			tree.LastDesc = forest.IdentityDescendant(tree.Cells[len(tree.Cells)-1])
		}
		f.Trees[t] = tree
		total += int64(cfg.CellsPerTree)
		pertree[t+1] = total
	}

	f.Gfq = []int64{0, total}

	return f, pertree, nil
}
