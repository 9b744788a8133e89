package manifest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	digestA = "900150983cd24fb0d6963f7d28e17f72"
	digestB = "d41d8cd98f00b204e9800998ecf8427e"
)

func TestParse_CurrentFormat(t *testing.T) {
	input := "# Algorithm: md5\n" +
		"md5|" + digestA + "|docs|a.txt|3|12|1700000000\n" +
		"md5|" + digestB + "||empty.txt|0|13|1700000001\n"

	m, warnings, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "md5", m.Algorithm)
	require.Equal(t, 2, m.Len())

	rec, ok := m.Get("docs/a.txt")
	require.True(t, ok)
	assert.Equal(t, digestA, rec.Digest)
	assert.Equal(t, int64(3), rec.Size)
	assert.Equal(t, Inode(12), rec.Inode)
	assert.Equal(t, Mtime(1700000000), rec.Mtime)

	rec, ok = m.Get("empty.txt")
	require.True(t, ok)
	assert.Equal(t, "", rec.Dir)
}

func TestParse_LegacyFieldCounts(t *testing.T) {
	input := "md5|" + digestA + "|a|five.txt|3\n" +
		"md5|" + digestA + "|a|six.txt|3|99\n"

	m, warnings, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	five, _ := m.Get("a/five.txt")
	assert.Equal(t, InodeUnknown, five.Inode)
	assert.True(t, five.Mtime.IsAbsent())

	six, _ := m.Get("a/six.txt")
	assert.Equal(t, Inode(99), six.Inode)
	assert.True(t, six.Mtime.IsAbsent())
}

func TestParse_AllLegacyLinesReportAbsentMtime(t *testing.T) {
	var b strings.Builder
	for _, name := range []string{"a", "b", "c", "d"} {
		b.WriteString("sha1|a9993e364706816aba3e25717850c26c9cd0d89d|dir|" + name + "|3\n")
	}

	m, warnings, err := Parse(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 4, m.Len())
	for _, r := range m.Records() {
		assert.True(t, r.Mtime.IsAbsent(), r.Path())
	}
}

func TestParse_ZeroMtimeIsNotAbsent(t *testing.T) {
	m, _, err := Parse(strings.NewReader("md5|" + digestA + "||z.txt|3|1|0\n"))
	require.NoError(t, err)
	rec, _ := m.Get("z.txt")
	assert.False(t, rec.Mtime.IsAbsent())
	assert.False(t, rec.Mtime.Plausible())
}

func TestParse_InvalidOptionalFieldsBecomeSentinels(t *testing.T) {
	m, warnings, err := Parse(strings.NewReader("md5|" + digestA + "||x|3|unknown|garbage\n"))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	rec, _ := m.Get("x")
	assert.Equal(t, InodeUnknown, rec.Inode)
	assert.True(t, rec.Mtime.IsAbsent())
}

func TestParse_FractionalMtime(t *testing.T) {
	m, _, err := Parse(strings.NewReader("md5|" + digestA + "||x|3|5|1700000000.75\n"))
	require.NoError(t, err)
	rec, _ := m.Get("x")
	assert.Equal(t, Mtime(1700000000), rec.Mtime)
}

func TestParse_MalformedLinesAreSkipped(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "md5|" + digestA + "|dir|file"},
		{"too many fields", "md5|" + digestA + "|dir|file|3|1|2|extra"},
		{"non hex digest", "md5|zz0150983cd24fb0d6963f7d28e17f72|dir|file|3"},
		{"wrong digest width", "md5|9001|dir|file|3"},
		{"non numeric size", "md5|" + digestA + "|dir|file|big"},
		{"negative size", "md5|" + digestA + "|dir|file|-1"},
		{"unknown algorithm", "crc7|" + digestA + "|dir|file|3"},
		{"empty filename", "md5|" + digestA + "|dir||3"},
		{"escaping subdir", "md5|" + digestA + "|../up|file|3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "md5|" + digestA + "||first|3|1|1700000000\n" +
				tt.line + "\n" +
				"md5|" + digestB + "||last|0|2|1700000000\n"

			m, warnings, err := Parse(strings.NewReader(input))
			require.NoError(t, err)
			require.Len(t, warnings, 1)
			assert.Equal(t, 2, warnings[0].Line)
			assert.Equal(t, tt.line, warnings[0].Text)
			assert.Equal(t, 2, m.Len())
			assert.True(t, m.Has("first"))
			assert.True(t, m.Has("last"))
		})
	}
}

func TestParse_OversizedLineIsSkipped(t *testing.T) {
	input := "md5|" + digestA + "||a.txt|3|12|1700000000\n" +
		strings.Repeat("x", 2*maxLineSize) + "\n" +
		"md5|" + digestB + "||b.txt|0|13|1700000001\n"

	m, warnings, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, []string{"a.txt", "b.txt"}, m.Paths())

	require.Len(t, warnings, 1)
	assert.Equal(t, 2, warnings[0].Line)
	assert.Contains(t, warnings[0].Reason, "longer than")
	assert.LessOrEqual(t, len(warnings[0].Text), 64*1024)
}

func TestParse_OversizedLastLineWithoutNewline(t *testing.T) {
	input := "md5|" + digestA + "||a.txt|3|12|1700000000\n" + strings.Repeat("\x00", maxLineSize+1)

	m, warnings, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	require.Len(t, warnings, 1)
	assert.Equal(t, 2, warnings[0].Line)
}

func TestParse_MixedAlgorithmsRejected(t *testing.T) {
	input := "md5|" + digestA + "||a|3\n" +
		"sha1|a9993e364706816aba3e25717850c26c9cd0d89d||b|3\n"

	m, warnings, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, 2, warnings[0].Line)
	assert.Contains(t, warnings[0].Reason, "mismatch")
	assert.Equal(t, "md5", m.Algorithm)
	assert.Equal(t, 1, m.Len())
}

func TestParse_HeaderOnly(t *testing.T) {
	m, warnings, err := Parse(strings.NewReader("# Algorithm: sha256\n"))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "sha256", m.Algorithm)
	assert.Equal(t, 0, m.Len())
}

func TestParse_LastWriteWins(t *testing.T) {
	input := "md5|" + digestA + "|d|same|3\n" +
		"md5|" + digestB + "|d|same|0\n"

	m, _, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	rec, _ := m.Get("d/same")
	assert.Equal(t, digestB, rec.Digest)
}

func TestParse_LegacySubdirsNormalized(t *testing.T) {
	input := "md5|" + digestA + "|.|root.txt|3\n" +
		"md5|" + digestA + "|./photos/2020|pic.jpg|3\n"

	m, _, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.True(t, m.Has("root.txt"))
	assert.True(t, m.Has("photos/2020/pic.jpg"))
}

func TestParse_UppercaseDigestNormalized(t *testing.T) {
	m, warnings, err := Parse(strings.NewReader("md5|" + strings.ToUpper(digestA) + "||a|3\n"))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	rec, _ := m.Get("a")
	assert.Equal(t, digestA, rec.Digest)
}

func TestRoundTrip(t *testing.T) {
	m := New("md5")
	require.NoError(t, m.Put(Record{Digest: digestA, Dir: "b/c", Name: "x.txt", Size: 3, Inode: 7, Mtime: 1700000000}))
	require.NoError(t, m.Put(Record{Digest: digestA, Dir: "", Name: "copy.txt", Size: 3, Inode: InodeUnknown, Mtime: MtimeAbsent}))
	require.NoError(t, m.Put(Record{Digest: digestB, Dir: "a", Name: "zero.txt", Size: 0, Inode: 0, Mtime: 0}))

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, m))

	parsed, warnings, err := Parse(&buf)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, m.Algorithm, parsed.Algorithm)
	assert.Equal(t, m.Records(), parsed.Records())
}

func TestSerialize_Format(t *testing.T) {
	m := New("md5")
	require.NoError(t, m.Put(Record{Digest: digestA, Name: "a.txt", Size: 3, Inode: InodeUnknown, Mtime: MtimeAbsent}))

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, m))
	assert.Equal(t, "# Algorithm: md5\nmd5|"+digestA+"||a.txt|3|unknown|absent\n", buf.String())
}

func TestRepresentable(t *testing.T) {
	assert.True(t, Representable("dir/file name.txt"))
	assert.False(t, Representable("dir/pipe|name"))
	assert.False(t, Representable("new\nline"))
}
