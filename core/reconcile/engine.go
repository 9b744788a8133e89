package reconcile

import (
	"errors"
	"sort"

	"file-hasher/core/manifest"
)

// digestIndex maps content to every record holding it, sorted by path.
// It lives for one reconciliation pass only.
type digestIndex map[manifest.ContentKey][]manifest.Record

func buildIndex(m *manifest.Manifest) digestIndex {
	idx := make(digestIndex)
	for _, r := range m.Records() {
		idx[r.Key()] = append(idx[r.Key()], r)
	}
	for _, members := range idx {
		sort.Slice(members, func(i, j int) bool {
			return members[i].Path() < members[j].Path()
		})
	}
	return idx
}

// Dedup reconciles a manifest against itself. The plan holds no moves, only
// the duplicate groups and their removal candidates.
func Dedup(m *manifest.Manifest) (*Plan, error) {
	return Reconcile(m, m, Options{})
}

// Reconcile classifies every record of src and dst and returns the plan that
// rearranges the destination tree to match the source layout. Passing the
// same manifest twice selects self-compare mode; ReconcileWithPlan also
// selects it for two references to the same manifest (see SameSource).
func Reconcile(src, dst *manifest.Manifest, opts Options) (*Plan, error) {
	if src == nil || dst == nil {
		return nil, errors.New("reconcile: nil manifest")
	}
	if src.Algorithm != "" && dst.Algorithm != "" && src.Algorithm != dst.Algorithm && !opts.AllowAlgorithmMismatch {
		return nil, &manifest.AlgorithmMismatchError{Existing: dst.Algorithm, Requested: src.Algorithm}
	}

	// Same manifest on both sides
	self := src == dst
	plan := newPlan(src, dst, self)

	// Index both sides
	srcIdx := buildIndex(src)
	dstIdx := buildIndex(dst)
	changed := classifyPaths(src, dst, plan)

	var (
		candidates []move
		removals   []Action
	)
	// Classify each content key
	for _, key := range orderedKeys(srcIdx, dstIdx) {
		s, d := srcIdx[key], dstIdx[key]

		switch {
		case self:
			if len(s) > 1 {
				plan.addGroup(key, SideDestination, s)
				removals = append(removals, surplus(SideDestination, s)...)
			}

		case len(d) == 0:
			for _, r := range s {
				if !changed[r.Path()] {
					plan.Missing = append(plan.Missing, r.Path())
				}
			}
			if len(s) > 1 {
				plan.addGroup(key, SideSource, s)
				removals = append(removals, surplus(SideSource, s)...)
			}

		case len(s) == 0:
			for _, r := range d {
				if changed[r.Path()] {
					continue
				}
				plan.Extra = append(plan.Extra, r.Path())
				removals = append(removals, removeCandidate(r, SideDestination, ReasonExtra))
			}
			if len(d) > 1 {
				plan.addGroup(key, SideDestination, d)
			}

		case len(s) == 1 && len(d) == 1:
			if s[0].Path() != d[0].Path() {
				candidates = append(candidates, move{from: d[0].Path(), to: s[0].Path()})
			}

		default:
			if len(s) > 1 {
				plan.addGroup(key, SideSource, s)
				removals = append(removals, surplus(SideSource, s)...)
			}
			if len(d) > 1 {
				plan.addGroup(key, SideDestination, d)
				removals = append(removals, surplus(SideDestination, d)...)
			}
			if len(d) < len(s) {
				plan.Shortfalls = append(plan.Shortfalls, shortfall(key, s, d, dst))
			}
		}
	}

	// Order moves and drop the unsafe ones
	moves, conflicts := resolveMoves(candidates, dst)
	plan.Conflicts = append(plan.Conflicts, conflicts...)
	mkdirs, rmdirs := directoryActions(moves, dst)

	// Assemble sections in script order
	plan.Actions = append(plan.Actions, mkdirs...)
	for _, mv := range moves {
		plan.Actions = append(plan.Actions, Action{Type: ActionMove, From: mv.from, Path: mv.to})
	}
	plan.Actions = append(plan.Actions, rmdirs...)
	plan.Actions = append(plan.Actions, removals...)

	// Finalize
	sort.Strings(plan.Missing)
	sort.Strings(plan.Extra)
	plan.summarize()

	return plan, nil
}

// classifyPaths compares records sharing a path and returns the set of
// paths whose content changed.
func classifyPaths(src, dst *manifest.Manifest, plan *Plan) map[string]bool {
	changed := make(map[string]bool)
	for _, s := range src.Records() {
		d, ok := dst.Get(s.Path())
		if !ok {
			continue
		}
		if s.Key() == d.Key() {
			plan.Summary.Unchanged++
			continue
		}
		changed[s.Path()] = true
		plan.Changed = append(plan.Changed, ChangedPath{Path: s.Path(), Source: s.Key(), Destination: d.Key()})
	}
	sort.Slice(plan.Changed, func(i, j int) bool {
		return plan.Changed[i].Path < plan.Changed[j].Path
	})
	return changed
}

// orderedKeys returns the union of content keys ordered by the lowest path
// holding them, so the output follows the tree rather than hash order.
func orderedKeys(srcIdx, dstIdx digestIndex) []manifest.ContentKey {
	first := make(map[manifest.ContentKey]string, len(srcIdx))
	for key, members := range srcIdx {
		first[key] = members[0].Path()
	}
	for key, members := range dstIdx {
		if p, ok := first[key]; !ok || members[0].Path() < p {
			first[key] = members[0].Path()
		}
	}

	keys := make([]manifest.ContentKey, 0, len(first))
	for key := range first {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if first[keys[i]] != first[keys[j]] {
			return first[keys[i]] < first[keys[j]]
		}
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// surplus returns removal candidates for every member but the first.
func surplus(side Side, members []manifest.Record) []Action {
	out := make([]Action, 0, len(members)-1)
	for _, r := range members[1:] {
		out = append(out, removeCandidate(r, side, ReasonDuplicate))
	}
	return out
}

func removeCandidate(r manifest.Record, side Side, reason string) Action {
	return Action{
		Type:     ActionRemoveFile,
		Path:     r.Path(),
		Advisory: true,
		Group:    r.Key().String(),
		Side:     side,
		Reason:   reason,
		Size:     r.Size,
		Inode:    r.Inode,
	}
}

func shortfall(key manifest.ContentKey, s, d []manifest.Record, dst *manifest.Manifest) Shortfall {
	out := Shortfall{Key: key, Source: len(s), Destination: len(d), Paths: []string{}}
	for _, r := range s {
		if held, ok := dst.Get(r.Path()); ok && held.Key() == key {
			continue
		}
		out.Paths = append(out.Paths, r.Path())
	}
	return out
}
