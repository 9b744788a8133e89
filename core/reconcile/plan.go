package reconcile

import (
	"fmt"
	"sort"

	"file-hasher/core/manifest"
)

// move renames a destination file from one path to another.
type move struct {
	from string
	to   string
}

func newPlan(src, dst *manifest.Manifest, self bool) *Plan {
	alg := src.Algorithm
	if alg == "" {
		alg = dst.Algorithm
	}
	return &Plan{
		Algorithm:   alg,
		SelfCompare: self,
		Actions:     []Action{},
		Changed:     []ChangedPath{},
		Missing:     []string{},
		Extra:       []string{},
		Groups:      []DuplicateGroup{},
		Shortfalls:  []Shortfall{},
		Conflicts:   []Conflict{},
		Summary: PlanSummary{
			SourceFiles:      src.Len(),
			DestinationFiles: dst.Len(),
		},
	}
}

func (p *Plan) addGroup(key manifest.ContentKey, side Side, members []manifest.Record) {
	g := DuplicateGroup{Key: key, Side: side, Members: make([]Member, 0, len(members))}
	for _, r := range members {
		g.Members = append(g.Members, Member{Path: r.Path(), Inode: r.Inode})
	}
	p.Groups = append(p.Groups, g)
}

func (p *Plan) summarize() {
	s := &p.Summary
	s.Changed = len(p.Changed)
	s.Missing = len(p.Missing)
	s.Extra = len(p.Extra)
	s.DuplicateGroups = len(p.Groups)
	s.Shortfalls = len(p.Shortfalls)
	s.Conflicts = len(p.Conflicts)
	s.MakeDirectories, s.Moves, s.RemoveDirectories, s.RemoveCandidates = 0, 0, 0, 0
	for _, a := range p.Actions {
		switch a.Type {
		case ActionMakeDirectory:
			s.MakeDirectories++
		case ActionMove:
			s.Moves++
		case ActionRemoveDirectory:
			s.RemoveDirectories++
		case ActionRemoveFile:
			s.RemoveCandidates++
		}
	}
}

// resolveMoves drops unique moves that cannot run safely and orders the rest
// so that a target vacated by another move is only used after that move.
func resolveMoves(candidates []move, dst *manifest.Manifest) ([]move, []Conflict) {
	dstDirs := directorySet(dst.Paths())
	pending := make(map[string]move, len(candidates))
	var conflicts []Conflict

	// Targets that can never receive a file
	for _, mv := range candidates {
		if reason := blockedTarget(mv, dst, dstDirs); reason != "" {
			conflicts = append(conflicts, Conflict{From: mv.from, To: mv.to, Reason: reason})
			continue
		}
		pending[mv.from] = mv
	}

	// A target held by a file that stays put is occupied. Rejecting one move
	// can occupy the target of another, so repeat until nothing changes.
	for rejected := true; rejected; {
		rejected = false
		for _, mv := range sortedMoves(pending) {
			if !dst.Has(mv.to) {
				continue
			}
			if _, vacating := pending[mv.to]; vacating {
				continue
			}
			delete(pending, mv.from)
			conflicts = append(conflicts, Conflict{From: mv.from, To: mv.to, Reason: "target is occupied in the destination"})
			rejected = true
		}
	}

	// Each target is vacated by at most one move, so dependencies form
	// chains and cycles. Chains run tail first; cycles need a temporary
	// name and are left to the user.
	waiting := make(map[string]move)
	var queue []move
	for _, mv := range sortedMoves(pending) {
		if _, blocked := pending[mv.to]; blocked {
			waiting[mv.to] = mv
			continue
		}
		queue = append(queue, mv)
	}

	ordered := make([]move, 0, len(pending))
	for len(queue) > 0 {
		mv := queue[0]
		queue = queue[1:]
		ordered = append(ordered, mv)
		delete(pending, mv.from)
		if next, ok := waiting[mv.from]; ok {
			queue = append(queue, next)
		}
	}
	for _, mv := range sortedMoves(pending) {
		conflicts = append(conflicts, Conflict{From: mv.from, To: mv.to, Reason: "moves form a cycle"})
	}

	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].From < conflicts[j].From
	})
	return ordered, conflicts
}

// blockedTarget reports why a target can never receive a file, or "".
func blockedTarget(mv move, dst *manifest.Manifest, dstDirs map[string]bool) string {
	if dstDirs[mv.to] {
		return "target is a directory in the destination"
	}
	for _, dir := range manifest.Ancestors(mv.to) {
		if dst.Has(dir) {
			return fmt.Sprintf("target parent %s is a file in the destination", dir)
		}
	}
	return ""
}

// directoryActions returns the mkdir actions needed by the moves, parent
// before child, and the advisory rmdir actions for directories the moves
// leave without any manifest path, deepest first.
func directoryActions(moves []move, dst *manifest.Manifest) ([]Action, []Action) {
	existing := directorySet(dst.Paths())

	// Paths after every move has run
	final := make(map[string]bool, dst.Len())
	for _, p := range dst.Paths() {
		final[p] = true
	}
	for _, mv := range moves {
		delete(final, mv.from)
	}
	for _, mv := range moves {
		final[mv.to] = true
	}
	occupied := directorySet(keys(final))

	// Collect missing targets and vacated sources
	create := make(map[string]bool)
	vacated := make(map[string]bool)
	for _, mv := range moves {
		for _, dir := range manifest.Ancestors(mv.to) {
			if !existing[dir] {
				create[dir] = true
			}
		}
		for _, dir := range manifest.Ancestors(mv.from) {
			if !occupied[dir] {
				vacated[dir] = true
			}
		}
	}

	// Parent before child
	mkdirs := make([]Action, 0, len(create))
	for _, dir := range sortedKeys(create) {
		mkdirs = append(mkdirs, Action{Type: ActionMakeDirectory, Path: dir})
	}

	// Deepest first
	rmdirPaths := sortedKeys(vacated)
	rmdirs := make([]Action, 0, len(rmdirPaths))
	for i := len(rmdirPaths) - 1; i >= 0; i-- {
		rmdirs = append(rmdirs, Action{Type: ActionRemoveDirectory, Path: rmdirPaths[i], Advisory: true})
	}

	return mkdirs, rmdirs
}

// directorySet returns every ancestor directory of the given paths.
func directorySet(paths []string) map[string]bool {
	dirs := make(map[string]bool)
	for _, p := range paths {
		for _, dir := range manifest.Ancestors(p) {
			dirs[dir] = true
		}
	}
	return dirs
}

func sortedMoves(pending map[string]move) []move {
	out := make([]move, 0, len(pending))
	for _, mv := range pending {
		out = append(out, mv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].from < out[j].from
	})
	return out
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := keys(set)
	sort.Strings(out)
	return out
}
