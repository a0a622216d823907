// Package backup archives a store directory into a single
// zstd-compressed stream and restores one back. Every file's bytes are
// digested with blake3; the digests are combined into a blake2b
// fingerprint over the whole manifest, so a restore can detect a
// truncated or corrupted archive. Each file is checked after it has been
// written into place; a failed restore leaves the files already written
// in the destination directory.
package backup

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"

	"github.com/jptalukdar/kvs/internal/kvserr"
)

// FileEntry describes one archived file.
type FileEntry struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Digest string `json:"digest"`
}

// Manifest describes the full contents of a backup.
type Manifest struct {
	Files       []FileEntry `json:"files"`
	Fingerprint string      `json:"fingerprint"`
}

// Create archives every regular file directly inside dir into w as a
// zstd-compressed stream: a JSON manifest line, followed by each file's
// raw bytes back to back in manifest order.
func Create(dir string, w io.Writer) (Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Manifest{}, kvserr.Io("read store directory", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var files []FileEntry
	var digests [][]byte
	for _, name := range names {
		digest, size, err := digestFile(filepath.Join(dir, name))
		if err != nil {
			return Manifest{}, err
		}
		files = append(files, FileEntry{Name: name, Size: size, Digest: hex.EncodeToString(digest)})
		digests = append(digests, digest)
	}

	fingerprint, err := fingerprintOf(digests)
	if err != nil {
		return Manifest{}, err
	}
	manifest := Manifest{Files: files, Fingerprint: hex.EncodeToString(fingerprint)}

	manifestLine, err := json.Marshal(&manifest)
	if err != nil {
		return Manifest{}, kvserr.Codec("encode backup manifest", err)
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return Manifest{}, kvserr.Io("open zstd writer", err)
	}

	if _, err := enc.Write(append(manifestLine, '\n')); err != nil {
		enc.Close()
		return Manifest{}, kvserr.Io("write backup manifest", err)
	}
	for _, name := range names {
		if err := copyFileInto(enc, filepath.Join(dir, name)); err != nil {
			enc.Close()
			return Manifest{}, err
		}
	}

	if err := enc.Close(); err != nil {
		return Manifest{}, kvserr.Io("close zstd writer", err)
	}
	return manifest, nil
}

// Restore reads a stream produced by Create and writes its files into
// destDir, verifying every file's digest and the manifest's overall
// fingerprint before returning.
func Restore(r io.Reader, destDir string) (Manifest, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return Manifest{}, kvserr.Io("open zstd reader", err)
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	line, err := br.ReadString('\n')
	if err != nil {
		return Manifest{}, kvserr.Codec("read backup manifest", err)
	}

	var manifest Manifest
	if err := json.Unmarshal([]byte(line), &manifest); err != nil {
		return Manifest{}, kvserr.Codec("decode backup manifest", err)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return Manifest{}, kvserr.Io("create restore directory", err)
	}

	digests := make([][]byte, 0, len(manifest.Files))
	for _, fe := range manifest.Files {
		digest, err := restoreFile(br, destDir, fe)
		if err != nil {
			return Manifest{}, err
		}
		digests = append(digests, digest)
	}

	fingerprint, err := fingerprintOf(digests)
	if err != nil {
		return Manifest{}, err
	}
	if hex.EncodeToString(fingerprint) != manifest.Fingerprint {
		return Manifest{}, kvserr.Codec("verify backup", errors.New("manifest fingerprint mismatch"))
	}

	return manifest, nil
}

func digestFile(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, kvserr.Io("open file for digest", err)
	}
	defer f.Close()

	h := blake3.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return nil, 0, kvserr.Io("digest file", err)
	}
	return h.Sum(nil), size, nil
}

func copyFileInto(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return kvserr.Io("open file for backup", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return kvserr.Io("write file into backup", err)
	}
	return nil
}

func restoreFile(r io.Reader, destDir string, fe FileEntry) ([]byte, error) {
	out, err := os.OpenFile(filepath.Join(destDir, fe.Name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, kvserr.Io("create restored file", err)
	}
	defer out.Close()

	h := blake3.New()
	mw := io.MultiWriter(out, h)
	if _, err := io.CopyN(mw, r, fe.Size); err != nil {
		return nil, kvserr.Io("restore file", err)
	}

	digest := h.Sum(nil)
	if hex.EncodeToString(digest) != fe.Digest {
		return nil, kvserr.Codec("verify restored file", fmt.Errorf("%s: digest mismatch", fe.Name))
	}
	return digest, nil
}

func fingerprintOf(digests [][]byte) ([]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, kvserr.Io("init blake2b digest", err)
	}
	for _, d := range digests {
		h.Write(d)
	}
	return h.Sum(nil), nil
}
