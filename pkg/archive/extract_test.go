package archive

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type member struct {
	name string
	body string
}

func writeTar(t *testing.T, members ...member) string {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, m := range members {
		if err := tw.WriteHeader(&tar.Header{Name: m.name, Mode: 0o644, Size: int64(len(m.body)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(m.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "archive.tar")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func rel(t *testing.T, dest string, paths []string) []string {
	t.Helper()
	result := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(dest, p)
		if err != nil {
			t.Fatal(err)
		}
		result = append(result, filepath.ToSlash(r))
	}
	return result
}

func TestExtract(t *testing.T) {
	archivePath := writeTar(t,
		member{"FILE_SAMPLE_MAP.txt", "filename\tbarcode(s)\n"},
		member{"RNASeqV2/a.rsem.genes.normalized_results", "gene_id\tnormalized_count\n"},
		member{"RNASeqV2/a.rsem.isoforms.results", "isoform_id\n"},
		member{"MANIFEST.txt", "md5\n"},
	)

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "everything",
			want: []string{"FILE_SAMPLE_MAP.txt", "RNASeqV2/a.rsem.genes.normalized_results", "RNASeqV2/a.rsem.isoforms.results", "MANIFEST.txt"},
		},
		{
			name: "filtered",
			opts: Options{Filter: Any(Contains("genes.normalized_results"), Suffix("FILE_SAMPLE_MAP.txt"))},
			want: []string{"FILE_SAMPLE_MAP.txt", "RNASeqV2/a.rsem.genes.normalized_results"},
		},
		{
			name: "flattened",
			opts: Options{Filter: Suffix(".results"), Flatten: true},
			want: []string{"a.rsem.isoforms.results"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := t.TempDir()
			got, err := Extract(archivePath, dest, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, rel(t, dest, got)); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestExtractContents(t *testing.T) {
	archivePath := writeTar(t, member{"dir/x.maf", "Hugo_Symbol\n"})
	dest := t.TempDir()

	if _, err := Extract(archivePath, dest, Options{}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "dir", "x.maf"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("Hugo_Symbol\n", string(data)); diff != "" {
		t.Fatal(diff)
	}
}

func TestExtractSkipExisting(t *testing.T) {
	archivePath := writeTar(t, member{"x.maf", "from archive"})
	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(dest, "x.maf"), []byte("local"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Extract(archivePath, dest, Options{SkipExisting: true}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "x.maf"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("local", string(data)); diff != "" {
		t.Fatal(diff)
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	archivePath := writeTar(t, member{"../../evil.txt", "x"})
	dest := t.TempDir()

	if _, err := Extract(archivePath, dest, Options{}); err == nil {
		t.Fatal("expected an error for a member outside the destination")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(filepath.Dir(dest)), "evil.txt")); !os.IsNotExist(err) {
		t.Fatal("member was written outside the destination")
	}
}

func TestExtractFlattenKeepsFirstDuplicate(t *testing.T) {
	archivePath := writeTar(t,
		member{"BI/somatic.maf", "from BI"},
		member{"BCM/somatic.maf", "from BCM"},
	)
	dest := t.TempDir()

	paths, err := Extract(archivePath, dest, Options{Flatten: true})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"somatic.maf"}, rel(t, dest, paths)); diff != "" {
		t.Fatal(diff)
	}

	data, err := os.ReadFile(filepath.Join(dest, "somatic.maf"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("from BI", string(data)); diff != "" {
		t.Fatal(diff)
	}
}
