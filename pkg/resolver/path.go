package resolver

import (
	"context"
	"strings"
)

type pathKey struct{}

// pathNode is one host on the chain of scribbles being rendered.
type pathNode struct {
	id     string
	depth  int
	parent *pathNode
}

func pathFrom(ctx context.Context) *pathNode {
	p, _ := ctx.Value(pathKey{}).(*pathNode)
	return p
}

func pushPath(ctx context.Context, id string) context.Context {
	parent := pathFrom(ctx)
	depth := 1
	if parent != nil {
		depth = parent.depth + 1
	}
	return context.WithValue(ctx, pathKey{}, &pathNode{id: id, depth: depth, parent: parent})
}

func onPath(ctx context.Context, id string) bool {
	for p := pathFrom(ctx); p != nil; p = p.parent {
		if p.id == id {
			return true
		}
	}
	return false
}

func depthOf(ctx context.Context) int {
	if p := pathFrom(ctx); p != nil {
		return p.depth
	}
	return 0
}

func pathString(ctx context.Context) string {
	var ids []string
	for p := pathFrom(ctx); p != nil; p = p.parent {
		ids = append(ids, p.id)
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return strings.Join(ids, " > ")
}
