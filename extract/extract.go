// Package extract implements the extraction driver: a depth-first walk
// of a pack's file tree that materializes each leaf to disk, optionally
// converting textures to PNG and tables to JSON along the way.
package extract

import (
	"context"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/packhound/scape/pack"
	"github.com/packhound/scape/table"
	"github.com/packhound/scape/texture"
)

// Options controls per-extension conversion behavior.
type Options struct {
	ConvertTextures bool // .sct/.sct2 -> .png
	ConvertTables   bool // .db -> .json
}

// Progress is written to atomically by Run and may be read concurrently
// by a caller (e.g. a UI) without synchronization — it is the only
// shared state between driver and reader.
type Progress struct {
	value atomic.Uint64 // bits of a float64 in [0,1]
}

func (p *Progress) set(v float64) {
	p.value.Store(math.Float64bits(v))
}

// Value returns the current progress ratio in [0, 1].
func (p *Progress) Value() float64 {
	return math.Float64frombits(p.value.Load())
}

var textureExtensions = map[string]bool{"sct": true, "sct2": true}

// Run walks the tree rooted at the archive's root node and writes every
// leaf under outputDir, mirroring the tree's folder structure (the
// synthetic "root" folder itself is not materialized as a directory).
// Failures are logged and extraction continues with the next file;
// a failed table decode still writes a "{}" stub per file.
func Run(ctx context.Context, a *pack.Archive, outputDir string, opts Options, progress *Progress) error {
	runID := uuid.New().String()
	slog.Info("extract: starting", "run_id", runID, "output", outputDir)

	root := a.Tree()
	total := treeSize(root)
	if total == 0 {
		if progress != nil {
			progress.set(1)
		}
		slog.Info("extract: nothing to extract", "run_id", runID)
		return nil
	}

	var extracted uint64
	err := walk(ctx, a, root, outputDir, opts, runID, &extracted, total, progress)
	if progress != nil {
		progress.set(1)
	}
	slog.Info("extract: finished", "run_id", runID)
	return err
}

func treeSize(n *pack.FileTreeNode) uint64 {
	if n.Kind == pack.NodeFile {
		return n.Size
	}
	var total uint64
	for _, c := range n.Children {
		total += treeSize(c)
	}
	return total
}

func walk(ctx context.Context, a *pack.Archive, node *pack.FileTreeNode, currentPath string, opts Options, runID string, extracted *uint64, total uint64, progress *Progress) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if node.Kind == pack.NodeFile {
		extractLeaf(a, node, currentPath, opts, runID)
		*extracted += node.Size
		if progress != nil && total > 0 {
			progress.set(float64(*extracted) / float64(total))
		}
		return nil
	}

	newPath := currentPath
	if node.Name != "root" {
		newPath = filepath.Join(currentPath, node.Name)
		if err := os.MkdirAll(newPath, 0o755); err != nil {
			slog.Error("extract: create directory failed", "run_id", runID, "path", newPath, "error", err)
			return nil
		}
	}

	for _, child := range node.Children {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := walk(ctx, a, child, newPath, opts, runID, extracted, total, progress); err != nil {
			return err
		}
	}
	return nil
}

// extractLeaf materializes one file leaf. Errors are logged and
// swallowed — extraction is best-effort per file, matching the original
// driver's catch-and-continue per-node error handling.
func extractLeaf(a *pack.Archive, node *pack.FileTreeNode, currentDir string, opts Options, runID string) {
	data, err := a.Read(node)
	if err != nil {
		slog.Error("extract: read leaf failed", "run_id", runID, "path", node.Path, "error", err)
		return
	}

	outName := node.Name
	outBody := data

	switch {
	case opts.ConvertTextures && textureExtensions[node.Ext]:
		png, err := texture.Decode(data)
		if err != nil {
			slog.Error("extract: texture decode failed", "run_id", runID, "path", node.Path, "error", err)
			return
		}
		outName = replaceExt(outName, "png")
		outBody = png

	case opts.ConvertTables && node.Ext == "db":
		json := table.Decode(data)
		outName = replaceExt(outName, "json")
		outBody = []byte(json)

	default:
		// raw bytes verbatim
	}

	finalPath := filepath.Join(currentDir, outName)
	if err := os.WriteFile(finalPath, outBody, 0o644); err != nil {
		slog.Error("extract: write failed", "run_id", runID, "path", finalPath, "error", err)
	}
}

func replaceExt(name, newExt string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return name + "." + newExt
	}
	return name[:len(name)-len(ext)] + "." + newExt
}
