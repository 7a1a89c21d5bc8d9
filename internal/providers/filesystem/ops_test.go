package filesystem

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
	"github.com/GriffinCanCode/filemanager/internal/shared/paths"
)

const usersFile = ".users.json"

func newTestOps(t *testing.T, opts ...Option) (*Ops, string) {
	t.Helper()
	sb, err := paths.New(t.TempDir())
	require.NoError(t, err)
	root := sb.Root()

	require.NoError(t, os.WriteFile(filepath.Join(root, usersFile), []byte("[]"), 0o600))
	opts = append([]Option{WithReserved(filepath.Join(root, usersFile), filepath.Join(root, usersFile+".lock"))}, opts...)

	ops, err := NewOps(sb, opts...)
	require.NoError(t, err)
	return ops, root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func assertKind(t *testing.T, err error, kind errs.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, errs.KindOf(err), "error: %v", err)
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestNewOpsRejectsBadPattern(t *testing.T) {
	sb, err := paths.New(t.TempDir())
	require.NoError(t, err)

	_, err = NewOps(sb, WithHidden("[unclosed"))
	assert.Error(t, err)

	_, err = NewOps(sb, WithMaxUploadSize(0))
	assert.Error(t, err)
}

func TestListRootHidesStoreAndParent(t *testing.T) {
	ops, root := newTestOps(t)
	writeFile(t, root, "b.txt", "bb")
	require.NoError(t, os.Mkdir(filepath.Join(root, "a"), 0o755))

	entries, err := ops.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b.txt"}, names(entries))

	assert.Equal(t, TypeDirectory, entries[0].Type)
	assert.Equal(t, "a", entries[0].Path)
	assert.Equal(t, int64(0), entries[0].Size)

	assert.Equal(t, TypeFile, entries[1].Type)
	assert.Equal(t, int64(2), entries[1].Size)
	assert.True(t, entries[1].Readable)
	assert.NotZero(t, entries[1].Modified)
}

func TestListSubdirectoryShowsParent(t *testing.T) {
	ops, root := newTestOps(t)
	writeFile(t, root, "docs/inner/x.txt", "x")

	entries, err := ops.List("docs")
	require.NoError(t, err)
	require.Equal(t, []string{"..", "inner"}, names(entries))
	assert.Equal(t, "", entries[0].Path)
	assert.Equal(t, TypeDirectory, entries[0].Type)
	assert.Equal(t, "docs/inner", entries[1].Path)

	entries, err = ops.List("docs/inner")
	require.NoError(t, err)
	assert.Equal(t, "docs", entries[0].Path)
	assert.Equal(t, "docs/inner/x.txt", entries[1].Path)
}

func TestListHiddenPatterns(t *testing.T) {
	ops, root := newTestOps(t, WithHidden(".git", "**/*.tmp"))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	writeFile(t, root, "keep.txt", "k")
	writeFile(t, root, "sub/drop.tmp", "d")
	writeFile(t, root, ".fm-123.part", "in flight")

	entries, err := ops.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.txt", "sub"}, names(entries))

	entries, err = ops.List("sub")
	require.NoError(t, err)
	assert.Equal(t, []string{".."}, names(entries))
}

func TestTempNamespaceIsReserved(t *testing.T) {
	ops, root := newTestOps(t)
	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, ".fm-notes", "placed by hand")
	writeFile(t, root, ".fm-42.part", "in flight")

	err := ops.Create("", ".fm-notes2", KindFile)
	assertKind(t, err, errs.ValidationFailure)
	assertKind(t, ops.Create("", ".fm-dir", KindDirectory), errs.ValidationFailure)

	_, err = ops.Upload("", ".fm-upload.txt", strings.NewReader("x"), 1)
	assertKind(t, err, errs.ValidationFailure)
	assert.Equal(t, "Invalid file name", errs.Message(err))

	assertKind(t, ops.Rename("a.txt", ".fm-a.part"), errs.ValidationFailure)

	entries, err := ops.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{".fm-notes", "a.txt"}, names(entries))
}

func TestListDoesNotFollowEscapingLinks(t *testing.T) {
	ops, root := newTestOps(t)
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.bin")
	require.NoError(t, os.WriteFile(secret, bytes.Repeat([]byte{1}, 12345), 0o644))
	require.NoError(t, os.Symlink(secret, filepath.Join(root, "link")))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "outdir")))

	entries, err := ops.List("")
	require.NoError(t, err)
	require.Equal(t, []string{"link", "outdir"}, names(entries))

	for _, e := range entries {
		assert.Equal(t, TypeFile, e.Type, e.Name)
		assert.Equal(t, int64(0), e.Size, e.Name)
		assert.False(t, e.Readable, e.Name)
		assert.False(t, e.Writable, e.Name)
	}
}

func TestListInvalidDirectory(t *testing.T) {
	ops, root := newTestOps(t)
	writeFile(t, root, "file.txt", "x")

	_, err := ops.List("file.txt")
	assertKind(t, err, errs.NotADirectory)
	assert.Equal(t, "Invalid directory", errs.Message(err))

	_, err = ops.List("missing")
	assertKind(t, err, errs.NotADirectory)
}

func TestCreate(t *testing.T) {
	ops, root := newTestOps(t)

	require.NoError(t, ops.Create("", "docs", ""))
	info, err := os.Stat(filepath.Join(root, "docs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm()&^umaskBits(t))

	require.NoError(t, ops.Create("docs", "notes.txt", KindFile))
	info, err = os.Stat(filepath.Join(root, "docs", "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())

	require.NoError(t, ops.Create("docs", "../../evil/sub", KindDirectory))
	_, err = os.Stat(filepath.Join(root, "docs", "sub"))
	assert.NoError(t, err, "only the base name is used")
}

func TestCreateTwiceFailsAndKeepsFirst(t *testing.T) {
	ops, root := newTestOps(t)

	require.NoError(t, ops.Create("", "a.txt", KindFile))
	writeFile(t, root, "a.txt", "original")

	err := ops.Create("", "a.txt", KindFile)
	assertKind(t, err, errs.AlreadyExists)
	assert.Equal(t, "Already exists", errs.Message(err))

	err = ops.Create("", "a.txt", KindDirectory)
	assertKind(t, err, errs.AlreadyExists)

	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestCreateValidation(t *testing.T) {
	ops, root := newTestOps(t)
	writeFile(t, root, "file.txt", "x")

	assertKind(t, ops.Create("", "", KindFile), errs.ValidationFailure)
	assertKind(t, ops.Create("", "..", KindFile), errs.ValidationFailure)
	assertKind(t, ops.Create("", "x", "socket"), errs.ValidationFailure)
	assertKind(t, ops.Create("file.txt", "x", KindFile), errs.NotADirectory)
	assertKind(t, ops.Create("", usersFile, KindFile), errs.PathEscape)
}

func TestRename(t *testing.T) {
	ops, root := newTestOps(t)
	writeFile(t, root, "docs/a.txt", "a")
	writeFile(t, root, "docs/b.txt", "b")

	require.NoError(t, ops.Rename("docs/a.txt", "c.txt"))
	_, err := os.Stat(filepath.Join(root, "docs", "c.txt"))
	assert.NoError(t, err)

	err = ops.Rename("docs/c.txt", "b.txt")
	assertKind(t, err, errs.AlreadyExists)
	assert.Equal(t, "Target already exists", errs.Message(err))
	data, _ := os.ReadFile(filepath.Join(root, "docs", "b.txt"))
	assert.Equal(t, "b", string(data))

	err = ops.Rename("docs/missing", "x")
	assertKind(t, err, errs.NotFound)
	assert.Equal(t, "File not found", errs.Message(err))

	assertKind(t, ops.Rename("", "x"), errs.ValidationFailure)
	assertKind(t, ops.Rename(usersFile, "stolen.json"), errs.PathEscape)
	writeFile(t, root, "top.txt", "t")
	assertKind(t, ops.Rename("top.txt", usersFile), errs.PathEscape)
	assertKind(t, ops.Rename("docs/b.txt", ""), errs.ValidationFailure)
}

func TestDelete(t *testing.T) {
	ops, root := newTestOps(t)
	writeFile(t, root, "tree/a.txt", "a")
	writeFile(t, root, "tree/sub/b.txt", "b")
	require.NoError(t, os.Mkdir(filepath.Join(root, "tree", "empty"), 0o755))
	writeFile(t, root, "single.txt", "s")

	report, err := ops.Delete("tree")
	require.NoError(t, err)
	assert.Equal(t, DeleteReport{Removed: 5, Remaining: 0}, report)
	_, err = os.Stat(filepath.Join(root, "tree"))
	assert.True(t, os.IsNotExist(err))

	report, err = ops.Delete("single.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)

	_, err = ops.Delete("single.txt")
	assertKind(t, err, errs.NotFound)

	_, err = ops.Delete("")
	assertKind(t, err, errs.ValidationFailure)

	_, err = ops.Delete(usersFile)
	assertKind(t, err, errs.PathEscape)
}

func TestDeleteKeepsReservedDescendant(t *testing.T) {
	sb, err := paths.New(t.TempDir())
	require.NoError(t, err)
	root := sb.Root()
	writeFile(t, root, "conf/.users.json", "[]")
	writeFile(t, root, "conf/other.txt", "o")

	ops, err := NewOps(sb, WithReserved(filepath.Join(root, "conf", ".users.json")))
	require.NoError(t, err)

	report, err := ops.Delete("conf")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 2, report.Remaining, "reserved file and its directory")

	_, err = os.Stat(filepath.Join(root, "conf", ".users.json"))
	assert.NoError(t, err)
}

func TestReadAndWrite(t *testing.T) {
	ops, root := newTestOps(t)

	require.NoError(t, ops.Write("notes.txt", []byte("hello world")))
	content, err := ops.Read("notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content.Data))
	assert.True(t, strings.HasPrefix(content.MIME, "text/plain"))

	require.NoError(t, os.Chmod(filepath.Join(root, "notes.txt"), 0o600))
	require.NoError(t, ops.Write("notes.txt", []byte("replaced")))
	info, err := os.Stat(filepath.Join(root, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "existing mode is kept")

	content, err = ops.Read("notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(content.Data))
}

func TestReadFailures(t *testing.T) {
	ops, root := newTestOps(t, WithPreviewLimit(8))
	writeFile(t, root, "big.txt", "0123456789")
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0o755))

	_, err := ops.Read("big.txt")
	assertKind(t, err, errs.TooLarge)
	assert.Equal(t, "File too large to preview", errs.Message(err))

	_, err = ops.Read("dir")
	assertKind(t, err, errs.NotAFile)
	assert.Equal(t, "Not a file", errs.Message(err))

	_, err = ops.Read("missing")
	assertKind(t, err, errs.NotAFile)

	_, err = ops.Read(usersFile)
	assertKind(t, err, errs.PathEscape)

	require.NoError(t, os.WriteFile(filepath.Join(root, "blob"), []byte{0xff, 0xfe, 0x00}, 0o644))
	_, err = ops.Read("blob")
	assertKind(t, err, errs.NotAFile)
	assert.Equal(t, "Not a text file", errs.Message(err))
}

func TestWriteFailures(t *testing.T) {
	ops, root := newTestOps(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0o755))

	assertKind(t, ops.Write("dir", []byte("x")), errs.NotAFile)
	assertKind(t, ops.Write("", []byte("x")), errs.NotAFile)
	assertKind(t, ops.Write(usersFile, []byte("[]")), errs.PathEscape)

	err := ops.Write("missing/file.txt", []byte("x"))
	assertKind(t, err, errs.IOFailure)
	assert.Equal(t, "Failed to write file", errs.Message(err))
}

func TestWriteThroughInternalSymlink(t *testing.T) {
	ops, root := newTestOps(t)
	writeFile(t, root, "real.txt", "old")
	require.NoError(t, os.Symlink("real.txt", filepath.Join(root, "alias.txt")))

	require.NoError(t, ops.Write("alias.txt", []byte("new")))

	data, err := os.ReadFile(filepath.Join(root, "real.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	info, err := os.Lstat(filepath.Join(root, "alias.txt"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "link must survive")
}

func TestSymlinkEscapeIsRefused(t *testing.T) {
	ops, root := newTestOps(t)
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("s"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "out")))

	_, err := ops.Read("out/secret")
	assertKind(t, err, errs.PathEscape)

	assertKind(t, ops.Write("out/new.txt", []byte("x")), errs.PathEscape)

	_, err = ops.List("out")
	assertKind(t, err, errs.PathEscape)
}

func TestUpload(t *testing.T) {
	ops, root := newTestOps(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "in"), 0o755))

	name, err := ops.Upload("in", `C:\Users\me\photo.jpg`, strings.NewReader("jpegdata"), 8)
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", name)

	data, err := os.ReadFile(filepath.Join(root, "in", "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpegdata", string(data))

	name, err = ops.Upload("in", "../../etc/passwd", strings.NewReader("x"), -1)
	require.NoError(t, err)
	assert.Equal(t, "passwd", name)
}

func TestUploadTooLargeLeavesNothing(t *testing.T) {
	ops, root := newTestOps(t, WithMaxUploadSize(4))

	_, err := ops.Upload("", "big.bin", strings.NewReader("12345"), 5)
	assertKind(t, err, errs.TooLarge)
	assert.Equal(t, "File too large", errs.Message(err))

	// Declared size lies; the copy still stops at the ceiling.
	_, err = ops.Upload("", "big.bin", strings.NewReader("12345"), -1)
	assertKind(t, err, errs.TooLarge)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, "big.bin", e.Name())
		assert.False(t, strings.HasPrefix(e.Name(), tempPrefix), "temp file left: %s", e.Name())
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestUploadTransferError(t *testing.T) {
	ops, root := newTestOps(t)

	_, err := ops.Upload("", "f.bin", io.MultiReader(strings.NewReader("part"), failingReader{}), -1)
	assertKind(t, err, errs.TransferError)

	_, statErr := os.Stat(filepath.Join(root, "f.bin"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestUploadFailures(t *testing.T) {
	ops, root := newTestOps(t)
	writeFile(t, root, "file.txt", "x")

	_, err := ops.Upload("file.txt", "a", strings.NewReader("x"), 1)
	assertKind(t, err, errs.NotADirectory)

	_, err = ops.Upload("", "", strings.NewReader("x"), 1)
	assertKind(t, err, errs.ValidationFailure)

	_, err = ops.Upload("", usersFile, strings.NewReader("[]"), 2)
	assertKind(t, err, errs.PathEscape)
}

func TestOpen(t *testing.T) {
	ops, root := newTestOps(t)
	writeFile(t, root, "docs/report.pdf", "%PDF-1.4")

	dl, err := ops.Open("docs/report.pdf")
	require.NoError(t, err)
	defer dl.Close()

	assert.Equal(t, "report.pdf", dl.Name)
	assert.Equal(t, int64(8), dl.Size)
	var buf bytes.Buffer
	_, err = io.Copy(&buf, dl.File)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", buf.String())

	_, err = ops.Open("docs")
	assertKind(t, err, errs.NotFound)
	_, err = ops.Open("missing")
	assertKind(t, err, errs.NotFound)
	_, err = ops.Open(usersFile)
	assertKind(t, err, errs.PathEscape)
}

func TestMove(t *testing.T) {
	ops, root := newTestOps(t)
	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, "b.txt", "b")
	writeFile(t, root, "dir/inner.txt", "i")
	writeFile(t, root, "dest/b.txt", "existing")

	result, err := ops.Move([]string{"a.txt", "b.txt", "missing", "", "dir", "dest", usersFile}, "dest")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Moved)
	assert.Equal(t, 5, result.Skipped)
	assert.Equal(t, "Target already exists", result.FirstError)

	_, err = os.Stat(filepath.Join(root, "dest", "a.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "dest", "dir", "inner.txt"))
	assert.NoError(t, err)

	data, _ := os.ReadFile(filepath.Join(root, "dest", "b.txt"))
	assert.Equal(t, "existing", string(data))
	_, err = os.Stat(filepath.Join(root, "b.txt"))
	assert.NoError(t, err, "skipped source stays")
	_, err = os.Stat(filepath.Join(root, usersFile))
	assert.NoError(t, err)
}

func TestMoveIntoItself(t *testing.T) {
	ops, root := newTestOps(t)
	writeFile(t, root, "outer/inner/x.txt", "x")

	result, err := ops.Move([]string{"outer", ""}, "outer/inner")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Moved)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, "Cannot move a directory into itself", result.FirstError)
}

func TestMoveInvalidDestination(t *testing.T) {
	ops, root := newTestOps(t)
	writeFile(t, root, "a.txt", "a")

	_, err := ops.Move([]string{"a.txt"}, "a.txt")
	assertKind(t, err, errs.NotADirectory)
}

func umaskBits(t *testing.T) os.FileMode {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "umask")
	require.NoError(t, os.Mkdir(dir, 0o777))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	return 0o777 &^ info.Mode().Perm()
}
