package filesystem

import (
	"fmt"
	"io"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/GriffinCanCode/filemanager/internal/shared/errs"
)

// Format names an archive layout and its compression.
type Format string

const (
	FormatZip    Format = "zip"
	FormatTar    Format = "tar"
	FormatTarGz  Format = "tar.gz"
	FormatTarBz2 Format = "tar.bz2"
	FormatTarZst Format = "tar.zst"
	FormatTarXz  Format = "tar.xz"
)

// Formats lists every format Compress accepts.
var Formats = []Format{FormatZip, FormatTar, FormatTarGz, FormatTarBz2, FormatTarZst, FormatTarXz}

// extensions maps recognised archive suffixes to formats, longest first so
// compound suffixes win over their plain tail.
var extensions = []struct {
	suffix string
	format Format
}{
	{".tar.bz2", FormatTarBz2},
	{".tar.zst", FormatTarZst},
	{".tar.gz", FormatTarGz},
	{".tar.xz", FormatTarXz},
	{".tbz2", FormatTarBz2},
	{".tzst", FormatTarZst},
	{".tgz", FormatTarGz},
	{".txz", FormatTarXz},
	{".zip", FormatZip},
	{".tar", FormatTar},
}

// ParseFormat validates a client-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errs.New(errs.UnsupportedFormat, "Unsupported format")
}

// DetectFormat infers the format of an archive from its file name and returns
// the name with the recognised suffix removed.
func DetectFormat(name string) (Format, string, bool) {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext.suffix) {
			return ext.format, name[:len(name)-len(ext.suffix)], true
		}
	}
	return "", "", false
}

// Extension returns the suffix Compress appends for f.
func (f Format) Extension() string {
	return "." + string(f)
}

func (f Format) isTar() bool {
	return f != FormatZip
}

// compressor wraps w with the stream codec of a tar format.
func (f Format) compressor(w io.Writer) (io.WriteCloser, error) {
	switch f {
	case FormatTar:
		return nopWriteCloser{w}, nil
	case FormatTarGz:
		return gzip.NewWriterLevel(w, gzip.DefaultCompression)
	case FormatTarBz2:
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
	case FormatTarZst:
		return zstd.NewWriter(w)
	case FormatTarXz:
		return xz.NewWriter(w)
	default:
		return nil, fmt.Errorf("format %s has no stream codec", f)
	}
}

// decompressor wraps r with the stream codec of a tar format.
func (f Format) decompressor(r io.Reader) (io.ReadCloser, error) {
	switch f {
	case FormatTar:
		return io.NopCloser(r), nil
	case FormatTarGz:
		return gzip.NewReader(r)
	case FormatTarBz2:
		return bzip2.NewReader(r, nil)
	case FormatTarZst:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case FormatTarXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	default:
		return nil, fmt.Errorf("format %s has no stream codec", f)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
