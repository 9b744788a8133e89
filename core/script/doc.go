// Package script renders a reconciliation plan as a reviewable shell script.
//
// The script has four sections in fixed order: directory creation, moves,
// directory removals and removal candidates. Constructive commands are live
// and safe to re-run (mkdir -p, mv -n, rmdir). Removal candidates are always
// commented out; the reviewer uncomments the copies to delete. A trailing
// comment block reports what the plan could not script: changed content,
// missing files, copy shortfalls and conflicting moves.
package script
