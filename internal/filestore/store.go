// Package filestore keeps the boot record in a small HCL file, the flight
// build's stand-in for non-volatile flash:
//
//	boot {
//	  started      = true
//	  reboot_count = 3
//	  updated_at   = 1760000000000
//	}
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/intellisat/internal/bootstore"
	"github.com/specialistvlad/intellisat/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

type bootBlock struct {
	Started     bool  `hcl:"started"`
	RebootCount int   `hcl:"reboot_count"`
	UpdatedAt   int64 `hcl:"updated_at,optional"`
}

type bootFile struct {
	Boot bootBlock `hcl:"boot,block"`
}

// Store is a file-backed bootstore.Store.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a store at path. The file is created on the first Save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load implements bootstore.Store.
func (s *Store) Load(context.Context) (bootstore.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return bootstore.State{}, bootstore.ErrNotFound
	}
	if err != nil {
		return bootstore.State{}, fmt.Errorf("failed to read boot state: %w", err)
	}

	// hclsimple picks the syntax from the file name.
	name := s.path
	if ext := strings.ToLower(filepath.Ext(name)); ext != ".hcl" && ext != ".json" {
		name += ".hcl"
	}
	var f bootFile
	if err := hclsimple.Decode(name, src, nil, &f); err != nil {
		return bootstore.State{}, fmt.Errorf("failed to decode boot state: %w", err)
	}
	return bootstore.State{
		Started:     f.Boot.Started,
		RebootCount: f.Boot.RebootCount,
		UpdatedAt:   f.Boot.UpdatedAt,
	}, nil
}

// Save implements bootstore.Store.
func (s *Store) Save(_ context.Context, st bootstore.State) error {
	f := hclwrite.NewEmptyFile()
	body := f.Body().AppendNewBlock("boot", nil).Body()
	body.SetAttributeValue("started", cty.BoolVal(st.Started))
	body.SetAttributeValue("reboot_count", cty.NumberIntVal(int64(st.RebootCount)))
	body.SetAttributeValue("updated_at", cty.NumberIntVal(st.UpdatedAt))

	s.mu.Lock()
	defer s.mu.Unlock()
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create boot state directory: %w", err)
		}
	}
	if err := fsutil.WriteFileAtomic(s.path, f.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write boot state: %w", err)
	}
	return nil
}
