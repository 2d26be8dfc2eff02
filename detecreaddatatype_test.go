package pgsinherit

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectDataType(t *testing.T) {
	for _, v := range []struct {
		Input    []byte
		Expected DataType
	}{
		{[]byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00}, DataTypeGzip},
		{[]byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0x00}, DataTypeZip},
		{[]byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, DataTypeXZ},
		{[]byte{0x42, 0x5a, 0x68, 0x39}, DataTypeBZip2},
		{[]byte("rsID\teffect_allele\n"), DataTypeNoCompression},
		{[]byte("ab"), DataTypeNoCompression},
		{[]byte{}, DataTypeNoCompression},
	} {
		dt, err := DetectDataType(bytes.NewReader(v.Input))
		if err != nil {
			t.Fatal(err)
		}
		if dt != v.Expected {
			t.Errorf("Input %v: got %s, expected %s", v.Input, dt, v.Expected)
		}
	}
}

func TestOpenMaybeCompressed(t *testing.T) {
	contents := []byte("#comment\nrsID\teffect_allele\teffect_weight\nrs1\tA\t0.1\n")

	dir := t.TempDir()

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	w.Write(contents)
	w.Close()

	for name, data := range map[string][]byte{
		"plain.txt":     contents,
		"scores.txt.gz": gz.Bytes(),
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}

		rc, err := OpenMaybeCompressed(context.Background(), path, nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := io.ReadAll(rc)
		if err != nil {
			t.Fatal(err)
		}
		if err := rc.Close(); err != nil {
			t.Errorf("%s: close: %v", name, err)
		}

		if !bytes.Equal(got, contents) {
			t.Errorf("%s: got %q, expected %q", name, got, contents)
		}
	}
}

func TestOpenGoogleStorageWithoutClient(t *testing.T) {
	if _, _, err := MaybeOpenSeekerFromGoogleStorage(context.Background(), "gs://bucket/object", nil); err == nil {
		t.Error("Expected an error when no storage client is available")
	}
}
