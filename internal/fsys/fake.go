package fsys

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"
)

// Fake is an in-memory [FS] for testing. It records all calls (spy) and
// simulates filesystem state (fake). Pre-populate Dirs, Files, and Errors
// before calling methods; read Calls once the code under test returns.
// Paths are cleaned before lookup.
type Fake struct {
	Dirs   map[string]bool   // pre-populated directories
	Files  map[string][]byte // pre-populated files
	Errors map[string]error  // path → injected error (checked first)
	Calls  []Call            // spy log

	mu sync.Mutex
}

// Call records a single method invocation on [Fake].
type Call struct {
	Method string // FS method name, e.g. "ReadDir" or "Remove"
	Path   string // first path argument
}

// NewFake returns a ready-to-use [Fake] with empty maps.
func NewFake() *Fake {
	return &Fake{
		Dirs:   make(map[string]bool),
		Files:  make(map[string][]byte),
		Errors: make(map[string]error),
	}
}

// record logs the call and returns the injected error for path, if any.
// Callers must hold f.mu.
func (f *Fake) record(method, path string) error {
	f.Calls = append(f.Calls, Call{Method: method, Path: path})
	if err, ok := f.Errors[filepath.Clean(path)]; ok {
		return err
	}
	return nil
}

func isRoot(p string) bool {
	return p == "." || p == string(filepath.Separator) || filepath.Dir(p) == p
}

// dirExists reports whether p is a known directory. Callers must hold f.mu.
func (f *Fake) dirExists(p string) bool {
	return isRoot(p) || f.Dirs[p]
}

// checkParent verifies the parent of p is an existing directory.
func (f *Fake) checkParent(op, p string) error {
	parent := filepath.Dir(p)
	if _, ok := f.Files[parent]; ok {
		return &os.PathError{Op: op, Path: p, Err: syscall.ENOTDIR}
	}
	if !f.dirExists(parent) {
		return &os.PathError{Op: op, Path: p, Err: os.ErrNotExist}
	}
	return nil
}

// MkdirAll records the call and adds the directory (and parents) to Dirs.
func (f *Fake) MkdirAll(path string, _ os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("MkdirAll", path); err != nil {
		return err
	}
	// Refuse to create a directory through an existing file.
	for p := filepath.Clean(path); !isRoot(p); p = filepath.Dir(p) {
		if _, ok := f.Files[p]; ok {
			return &os.PathError{Op: "mkdir", Path: p, Err: syscall.ENOTDIR}
		}
	}
	for p := filepath.Clean(path); !isRoot(p); p = filepath.Dir(p) {
		f.Dirs[p] = true
	}
	return nil
}

func (f *Fake) put(op, name string, data []byte, appendTo bool) error {
	name = filepath.Clean(name)
	if f.Dirs[name] {
		return &os.PathError{Op: op, Path: name, Err: syscall.EISDIR}
	}
	if err := f.checkParent(op, name); err != nil {
		return err
	}
	var cp []byte
	if appendTo {
		cp = append(cp, f.Files[name]...)
	}
	cp = append(cp, data...)
	if cp == nil {
		cp = []byte{}
	}
	f.Files[name] = cp
	return nil
}

// WriteFile records the call and stores the data in Files.
func (f *Fake) WriteFile(name string, data []byte, _ os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("WriteFile", name); err != nil {
		return err
	}
	return f.put("open", name, data, false)
}

// AppendFile records the call and appends the data in Files.
func (f *Fake) AppendFile(name string, data []byte, _ os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AppendFile", name); err != nil {
		return err
	}
	return f.put("open", name, data, true)
}

func (f *Fake) get(op, name string) ([]byte, error) {
	name = filepath.Clean(name)
	if f.dirExists(name) {
		return nil, &os.PathError{Op: op, Path: name, Err: syscall.EISDIR}
	}
	data, ok := f.Files[name]
	if !ok {
		return nil, &os.PathError{Op: op, Path: name, Err: os.ErrNotExist}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// ReadFile records the call and returns the file contents from Files.
func (f *Fake) ReadFile(name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ReadFile", name); err != nil {
		return nil, err
	}
	return f.get("read", name)
}

// CopyFile records the call (under the source path) and duplicates the
// source bytes at dst.
func (f *Fake) CopyFile(src, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CopyFile", src); err != nil {
		return err
	}
	if err, ok := f.Errors[filepath.Clean(dst)]; ok {
		return err
	}
	data, err := f.get("copy", src)
	if err != nil {
		return err
	}
	return f.put("copy", dst, data, false)
}

// OpenFile records the call and returns a writer whose contents land in
// Files when it is closed.
func (f *Fake) OpenFile(name string, flag int, _ os.FileMode) (io.WriteCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("OpenFile", name); err != nil {
		return nil, err
	}
	name = filepath.Clean(name)
	_, exists := f.Files[name]
	if !exists && flag&os.O_CREATE == 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	appendTo := flag&os.O_APPEND != 0
	if err := f.put("open", name, nil, appendTo); err != nil {
		return nil, err
	}
	return &fakeWriter{fake: f, name: name}, nil
}

// Stat records the call and returns info based on Dirs/Files maps.
func (f *Fake) Stat(name string) (os.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Stat", name); err != nil {
		return nil, err
	}
	name = filepath.Clean(name)
	if f.dirExists(name) {
		return fakeFileInfo{name: filepath.Base(name), dir: true}, nil
	}
	if data, ok := f.Files[name]; ok {
		return fakeFileInfo{name: filepath.Base(name), size: int64(len(data))}, nil
	}
	return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
}

// ReadDir records the call and returns entries from direct children.
func (f *Fake) ReadDir(name string) ([]os.DirEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ReadDir", name); err != nil {
		return nil, err
	}

	name = filepath.Clean(name)
	if _, ok := f.Files[name]; ok {
		return nil, &os.PathError{Op: "readdirent", Path: name, Err: syscall.ENOTDIR}
	}
	if !f.dirExists(name) {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	return f.children(name), nil
}

// children lists the direct children of dir. Callers must hold f.mu.
func (f *Fake) children(dir string) []os.DirEntry {
	var entries []os.DirEntry

	// Collect direct child directories.
	for d := range f.Dirs {
		if filepath.Dir(d) == dir && d != dir {
			entries = append(entries, fakeDirEntry{name: filepath.Base(d), dir: true})
		}
	}
	// Collect direct child files.
	for p, data := range f.Files {
		if filepath.Dir(p) == dir {
			entries = append(entries, fakeDirEntry{name: filepath.Base(p), size: int64(len(data))})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries
}

// Remove records the call and deletes a file or an empty directory.
func (f *Fake) Remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Remove", name); err != nil {
		return err
	}

	name = filepath.Clean(name)
	if _, ok := f.Files[name]; ok {
		delete(f.Files, name)
		return nil
	}
	if f.Dirs[name] {
		if len(f.children(name)) > 0 {
			return &os.PathError{Op: "remove", Path: name, Err: syscall.ENOTEMPTY}
		}
		delete(f.Dirs, name)
		return nil
	}
	return &os.PathError{Op: "remove", Path: name, Err: os.ErrNotExist}
}

// CallCount returns the number of recorded calls.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// --- fake writer ---

type fakeWriter struct {
	fake   *Fake
	name   string
	buf    bytes.Buffer
	closed bool
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, os.ErrClosed
	}
	return w.buf.Write(p)
}

func (w *fakeWriter) Close() error {
	if w.closed {
		return os.ErrClosed
	}
	w.closed = true
	w.fake.mu.Lock()
	defer w.fake.mu.Unlock()
	w.fake.Files[w.name] = append(w.fake.Files[w.name], w.buf.Bytes()...)
	return nil
}

// --- fake os.FileInfo ---

type fakeFileInfo struct {
	name string
	size int64
	dir  bool
}

func (fi fakeFileInfo) Name() string { return fi.name }
func (fi fakeFileInfo) Size() int64  { return fi.size }
func (fi fakeFileInfo) Mode() os.FileMode {
	if fi.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}
func (fi fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (fi fakeFileInfo) IsDir() bool        { return fi.dir }
func (fi fakeFileInfo) Sys() any           { return nil }

// --- fake os.DirEntry ---

type fakeDirEntry struct {
	name string
	size int64
	dir  bool
}

func (de fakeDirEntry) Name() string { return de.name }
func (de fakeDirEntry) IsDir() bool  { return de.dir }
func (de fakeDirEntry) Type() fs.FileMode {
	if de.dir {
		return fs.ModeDir
	}
	return 0
}
func (de fakeDirEntry) Info() (fs.FileInfo, error) {
	return fakeFileInfo(de), nil
}

var (
	_ FS = (*Fake)(nil)
	_ FS = OSFS{}
)

// Ensure fakeFileInfo implements os.FileInfo at compile time.
var _ os.FileInfo = fakeFileInfo{}

// Ensure fakeDirEntry implements os.DirEntry at compile time.
var _ os.DirEntry = fakeDirEntry{}
