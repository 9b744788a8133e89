package reconcile

import "file-hasher/core/manifest"

// ActionType represents the type of filesystem action.
type ActionType string

const (
	// ActionMakeDirectory creates a directory (and its parents) in the destination tree.
	ActionMakeDirectory ActionType = "mkdir"
	// ActionMove renames a destination file to match its source path.
	ActionMove ActionType = "move"
	// ActionRemoveDirectory removes a directory that may have been emptied by moves.
	// It is advisory: removal fails harmlessly when the directory is not empty.
	ActionRemoveDirectory ActionType = "rmdir"
	// ActionRemoveFile is a removal candidate. It is always advisory.
	ActionRemoveFile ActionType = "rm"
)

// Side identifies which manifest a path belongs to.
type Side string

const (
	// SideSource is the manifest describing the desired layout.
	SideSource Side = "source"
	// SideDestination is the manifest describing the tree the script runs in.
	SideDestination Side = "destination"
)

// Reasons attached to removal candidates.
const (
	// ReasonDuplicate marks a surplus copy inside a duplicate group.
	ReasonDuplicate = "duplicate"
	// ReasonExtra marks destination content with no match in the source.
	ReasonExtra = "extra"
)

// Action represents a planned filesystem operation.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Path is the action target: the directory for mkdir/rmdir, the new
	// location for move and the file for rm.
	Path string `json:"path"`

	// From is the current location of a moved file.
	// Only populated for ActionMove.
	From string `json:"from,omitempty"`

	// Advisory marks actions that are rendered inert or may fail harmlessly.
	Advisory bool `json:"advisory"`

	// Group is the content key of the duplicate group a removal belongs to.
	Group string `json:"group,omitempty"`

	// Side is the tree a removal candidate lives in.
	Side Side `json:"side,omitempty"`

	// Reason explains why a removal candidate was emitted.
	Reason string `json:"reason,omitempty"`

	// Size is the file size of a removal candidate.
	Size int64 `json:"size,omitempty"`

	// Inode is the recorded inode of a removal candidate. Hard links share
	// it, so removing one of them frees no space.
	Inode manifest.Inode `json:"inode,omitempty"`
}

// ChangedPath is a path present in both manifests with different content.
type ChangedPath struct {
	Path        string              `json:"path"`
	Source      manifest.ContentKey `json:"source"`
	Destination manifest.ContentKey `json:"destination"`
}

// Member is one path of a duplicate group.
type Member struct {
	Path  string         `json:"path"`
	Inode manifest.Inode `json:"inode"`
}

// DuplicateGroup is a set of paths on one side sharing digest and size.
// Members are sorted by path; the first one is the copy kept by default.
type DuplicateGroup struct {
	Key     manifest.ContentKey `json:"key"`
	Side    Side                `json:"side"`
	Members []Member            `json:"members"`
}

// Shortfall reports content the destination holds fewer copies of than the
// source. The missing copies are never fabricated.
type Shortfall struct {
	Key         manifest.ContentKey `json:"key"`
	Source      int                 `json:"source"`
	Destination int                 `json:"destination"`
	// Paths lists source paths with no copy at the same destination path.
	Paths []string `json:"paths"`
}

// Conflict is a unique move that cannot be scripted safely.
type Conflict struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// Plan is the result of reconciling two manifests. It is pure data.
type Plan struct {
	// Algorithm is the hash algorithm both manifests share.
	Algorithm string `json:"algorithm"`

	// SelfCompare is set when a manifest was compared against itself.
	SelfCompare bool `json:"self_compare"`

	// Actions holds the sections in fixed order: mkdir, move, rmdir, rm.
	Actions []Action `json:"actions"`

	// Changed lists paths whose content differs between the manifests.
	Changed []ChangedPath `json:"changed"`

	// Missing lists source paths whose content does not exist anywhere in
	// the destination and needs an out-of-band transfer.
	Missing []string `json:"missing"`

	// Extra lists destination paths whose content does not exist anywhere
	// in the source.
	Extra []string `json:"extra"`

	// Groups lists duplicate groups per side.
	Groups []DuplicateGroup `json:"groups"`

	// Shortfalls lists content with fewer destination copies than source copies.
	Shortfalls []Shortfall `json:"shortfalls"`

	// Conflicts lists unique moves that were not scripted.
	Conflicts []Conflict `json:"conflicts"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// SourceFiles is the number of records in the source manifest.
	SourceFiles int `json:"source_files"`

	// DestinationFiles is the number of records in the destination manifest.
	DestinationFiles int `json:"destination_files"`

	// Unchanged counts paths with identical content on both sides.
	Unchanged int `json:"unchanged"`

	// Changed counts paths whose content differs.
	Changed int `json:"changed"`

	// MakeDirectories counts planned mkdir actions.
	MakeDirectories int `json:"make_directories"`

	// Moves counts planned move actions.
	Moves int `json:"moves"`

	// RemoveDirectories counts advisory rmdir actions.
	RemoveDirectories int `json:"remove_directories"`

	// RemoveCandidates counts advisory rm actions.
	RemoveCandidates int `json:"remove_candidates"`

	// Missing counts source paths needing transfer.
	Missing int `json:"missing"`

	// Extra counts destination-only paths.
	Extra int `json:"extra"`

	// DuplicateGroups counts reported duplicate groups.
	DuplicateGroups int `json:"duplicate_groups"`

	// Shortfalls counts content with missing copies.
	Shortfalls int `json:"shortfalls"`

	// Conflicts counts unscripted moves.
	Conflicts int `json:"conflicts"`
}

// Options controls reconcile behavior.
type Options struct {
	// AllowAlgorithmMismatch compares manifests built with different
	// algorithms. No content will match across them.
	AllowAlgorithmMismatch bool
}

// Section returns the actions of one type in plan order.
func (p *Plan) Section(t ActionType) []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// Constructive returns the mkdir, move and rmdir actions.
func (p *Plan) Constructive() []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Type != ActionRemoveFile {
			out = append(out, a)
		}
	}
	return out
}

// GroupsFor returns the duplicate groups reported for one side.
func (p *Plan) GroupsFor(side Side) []DuplicateGroup {
	var out []DuplicateGroup
	for _, g := range p.Groups {
		if g.Side == side {
			out = append(out, g)
		}
	}
	return out
}
