package script

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"file-hasher/core/reconcile"

	"github.com/alessio/shellescape"
	"github.com/google/renameio"
)

// Section headers, in output order.
const (
	HeaderMakeDirectory   = "# mkdir statements."
	HeaderMove            = "# mv statements."
	HeaderRemoveDirectory = "# Directories possibly empty from now. Please check."
	HeaderRemoveFile      = "# Those files are repeated. You can remove one or many of them if you wish:"
)

// Options adds context to the script header.
type Options struct {
	// Source and Destination name the compared manifests.
	Source      string
	Destination string
}

// Render returns the script for plan.
func Render(plan *reconcile.Plan) string {
	var buf bytes.Buffer
	// bytes.Buffer writes never fail
	_ = Write(&buf, plan, Options{})
	return buf.String()
}

// Save writes the script to path, replacing any previous file atomically.
func Save(path string, plan *reconcile.Plan, opts Options) error {
	var buf bytes.Buffer
	if err := Write(&buf, plan, opts); err != nil {
		return err
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o755); err != nil {
		return fmt.Errorf("failed to write script %s: %w", path, err)
	}
	return nil
}

// Write renders plan to w.
func Write(w io.Writer, plan *reconcile.Plan, opts Options) error {
	bw := bufio.NewWriter(w)
	p := &printer{w: bw}

	p.line("#!/bin/sh")
	p.line("# Review every command before running this script.")
	if plan.Algorithm != "" {
		p.line("# Algorithm: " + plan.Algorithm)
	}
	if opts.Source != "" {
		p.line("# Source: " + opts.Source)
	}
	if opts.Destination != "" {
		p.line("# Destination: " + opts.Destination)
	}

	p.section(HeaderMakeDirectory)
	for _, a := range plan.Section(reconcile.ActionMakeDirectory) {
		p.line("mkdir -p -v -- " + quote(a.Path))
	}

	p.section(HeaderMove)
	for _, a := range plan.Section(reconcile.ActionMove) {
		p.line("mv -n -v -- " + quote(a.From) + " " + quote(a.Path))
	}

	p.section(HeaderRemoveDirectory)
	for _, a := range plan.Section(reconcile.ActionRemoveDirectory) {
		p.line("rmdir -v -- " + quote(a.Path))
	}

	p.section(HeaderRemoveFile)
	p.line("# (Note: if the inode is the same, there is no space wasted)")
	writeRemovals(p, plan)

	writeReport(p, plan)

	if p.err != nil {
		return p.err
	}
	return bw.Flush()
}

// groupID identifies a duplicate group within the plan.
type groupID struct {
	side reconcile.Side
	key  string
}

func writeRemovals(p *printer, plan *reconcile.Plan) {
	kept := make(map[groupID]reconcile.Member, len(plan.Groups))
	for _, g := range plan.Groups {
		kept[groupID{side: g.Side, key: g.Key.String()}] = g.Members[0]
	}

	var extras []reconcile.Action
	var current groupID
	for _, a := range plan.Section(reconcile.ActionRemoveFile) {
		if a.Reason == reconcile.ReasonExtra {
			extras = append(extras, a)
			continue
		}
		id := groupID{side: a.Side, key: a.Group}
		if id != current {
			current = id
			digest, _, _ := strings.Cut(a.Group, ":")
			header := fmt.Sprintf("# Key: %s - Size: %d", digest, a.Size)
			if !plan.SelfCompare {
				header += " - Tree: " + string(a.Side)
			}
			p.blank()
			p.line(header)
			if k, ok := kept[id]; ok {
				p.line(fmt.Sprintf("# keep %s # inode: %s", quote(k.Path), k.Inode))
			}
		}
		p.line(removeLine(a))
	}

	if len(extras) > 0 {
		p.blank()
		p.line("# Those files only exist in the destination. You can remove them if you wish:")
		for _, a := range extras {
			p.line(removeLine(a))
		}
	}
}

func removeLine(a reconcile.Action) string {
	return fmt.Sprintf("# rm -v -- %s # inode: %s", quote(a.Path), a.Inode)
}

func writeReport(p *printer, plan *reconcile.Plan) {
	if len(plan.Changed) > 0 {
		p.section("# Content changed at the same path (not synced):")
		for _, c := range plan.Changed {
			p.line("#   " + quote(c.Path))
		}
	}
	if len(plan.Missing) > 0 {
		p.section("# Those files only exist in the source and need a transfer:")
		for _, m := range plan.Missing {
			p.line("#   " + quote(m))
		}
	}
	if len(plan.Shortfalls) > 0 {
		p.section("# The destination holds fewer copies than the source:")
		for _, s := range plan.Shortfalls {
			p.line(fmt.Sprintf("#   Key: %s - Size: %d - Source: %d - Destination: %d", s.Key.Digest, s.Key.Size, s.Source, s.Destination))
			for _, path := range s.Paths {
				p.line("#     " + quote(path))
			}
		}
	}
	if len(plan.Conflicts) > 0 {
		p.section("# Moves that could not be scripted:")
		for _, c := range plan.Conflicts {
			p.line(fmt.Sprintf("#   %s -> %s: %s", quote(c.From), quote(c.To), c.Reason))
		}
	}
}

func quote(path string) string {
	return shellescape.Quote(path)
}

// printer writes lines and keeps the first error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s+"\n")
}

func (p *printer) blank() {
	p.line("")
}

func (p *printer) section(header string) {
	p.blank()
	p.line(header)
}
