package filemap

import (
	"fmt"
	"path"

	"github.com/tidwall/btree"
)

// Reserved field names never used as hierarchy tags.
const (
	fieldLoad = "load"
	fieldFilt = "filt"
	fieldWhen = "when"
	fieldThen = "then"
	fieldMiss = "miss"
	fieldName = "name"
)

func reservedField(key string) bool {
	switch key {
	case fieldLoad, fieldFilt, fieldWhen, fieldThen, fieldMiss:
		return true
	default:
		return false
	}
}

// FileTable is the flat, ordered view of every declared file: relative
// filename template mapped to its instruction.
type FileTable struct {
	files *btree.Map[string, *File]
}

func newFileTable() *FileTable {
	return &FileTable{
		files: btree.NewMap[string, *File](0),
	}
}

func (t *FileTable) Len() int {
	return t.files.Len()
}

func (t *FileTable) Get(name string) (*File, bool) {
	return t.files.Get(name)
}

// Names returns every declared relative filename in sorted order.
func (t *FileTable) Names() []string {
	names := make([]string, 0, t.files.Len())
	t.files.Scan(func(name string, _ *File) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Each visits every entry in sorted filename order.
func (t *FileTable) Each(fn func(name string, file *File) bool) {
	t.files.Scan(fn)
}

// skelLeaf is one file at the bottom of a hierarchy path.
type skelLeaf struct {
	relpath string
	file    *File
}

// skelNode is the tag-nested structure of file instructions before any
// content is loaded. Levels alternate tag name and tag value; leaves
// sit at the end of the matched hierarchy row.
type skelNode struct {
	children map[string]*skelNode
	order    []string

	leaves    map[string]*skelLeaf
	leafOrder []string
}

func newSkelNode() *skelNode {
	return &skelNode{}
}

func (n *skelNode) child(key string) *skelNode {
	if n.children == nil {
		n.children = make(map[string]*skelNode)
	}
	if c, ok := n.children[key]; ok {
		return c
	}

	c := newSkelNode()
	n.children[key] = c
	n.order = append(n.order, key)
	return c
}

func (n *skelNode) setLeaf(key string, leaf *skelLeaf) {
	if n.leaves == nil {
		n.leaves = make(map[string]*skelLeaf)
	}
	if _, ok := n.leaves[key]; !ok {
		n.leafOrder = append(n.leafOrder, key)
	}
	n.leaves[key] = leaf
}

// parser walks an instruction tree, collecting the flat file table and
// the skeleton tree. A directory stack tracks the enclosing segment
// names; their join is the file's relative filename template.
type parser struct {
	table    *FileTable
	root     *skelNode
	rows     [][]string
	dirstack []string
}

// parseInstructions turns an instruction set plus an optional hierarchy
// specification into the flat file table and the skeleton tree.
//
// Hierarchy rows are tried in the order supplied; a file matches the
// first row whose tags it all carries. When no row matches, one is
// synthesized from the file's own tags in declared order and appended
// for reuse by later files.
func parseInstructions(inst Instruction, hierarchy [][]string) (*FileTable, *skelNode, error) {
	p := &parser{
		table: newFileTable(),
		root:  newSkelNode(),
		rows:  append([][]string{}, hierarchy...),
	}

	if err := p.walk(inst); err != nil {
		return nil, nil, err
	}

	return p.table, p.root, nil
}

func (p *parser) walk(inst Instruction) error {
	switch v := inst.(type) {
	case *File:
		return p.file(v)
	case Group:
		for _, member := range v {
			f, ok := member.(*File)
			if !ok {
				return fmt.Errorf("%w: group members must be file instructions", ErrInvalidInstruction)
			}
			if err := p.file(f); err != nil {
				return err
			}
		}
		return nil
	case Directory:
		for _, entry := range v {
			if entry.Inst == nil {
				return fmt.Errorf("%w: directory entry %q has no instruction", ErrInvalidInstruction, entry.Name)
			}
			if entry.Name != "" {
				p.dirstack = append(p.dirstack, entry.Name)
			}
			err := p.walk(entry.Inst)
			if entry.Name != "" {
				p.dirstack = p.dirstack[:len(p.dirstack)-1]
			}
			if err != nil {
				return err
			}
		}
		return nil
	case nil:
		return fmt.Errorf("%w: nil instruction", ErrInvalidInstruction)
	default:
		return fmt.Errorf("%w: unknown instruction type %T", ErrInvalidInstruction, inst)
	}
}

func (p *parser) file(f *File) error {
	if f == nil {
		return fmt.Errorf("%w: nil file instruction", ErrInvalidInstruction)
	}
	if len(p.dirstack) == 0 {
		return fmt.Errorf("%w: file instruction without an enclosing path segment", ErrInvalidInstruction)
	}

	relpath := path.Join(p.dirstack...)
	if _, exists := p.table.Get(relpath); exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFile, relpath)
	}

	row, matched := p.matchRow(f)
	if !matched {
		row = synthesizeRow(f)
		p.rows = append(p.rows, row)
	}

	node := p.root
	for _, tag := range row {
		value, _ := f.Tag(tag)
		node = node.child(tag).child(value)
	}

	// Tags the matched row did not consume still nest below it, so a
	// shallow hierarchy spec never collapses distinct files onto one
	// leaf map.
	for _, tag := range f.Tags {
		if reservedField(tag.Key) || tag.Key == fieldName || rowContains(row, tag.Key) {
			continue
		}
		node = node.child(tag.Key).child(tag.Value)
	}

	leafKey := relpath
	if name, ok := f.Tag(fieldName); ok {
		leafKey = name
	}
	node.setLeaf(leafKey, &skelLeaf{relpath: relpath, file: f})

	p.table.files.Set(relpath, f)
	return nil
}

// matchRow returns the first hierarchy row whose tags are all present
// on the file.
func (p *parser) matchRow(f *File) ([]string, bool) {
	for _, row := range p.rows {
		if len(row) == 0 {
			continue
		}
		all := true
		for _, tag := range row {
			if _, ok := f.Tag(tag); !ok {
				all = false
				break
			}
		}
		if all {
			return row, true
		}
	}
	return nil, false
}

// synthesizeRow builds a hierarchy row from the file's own tags in
// declared order, skipping reserved fields and the leaf-naming field.
func synthesizeRow(f *File) []string {
	var row []string
	for _, tag := range f.Tags {
		if reservedField(tag.Key) || tag.Key == fieldName {
			continue
		}
		row = append(row, tag.Key)
	}
	return row
}

func rowContains(row []string, tag string) bool {
	for _, t := range row {
		if t == tag {
			return true
		}
	}
	return false
}
