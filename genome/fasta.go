// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package genome

import (
	"fmt"
	"io"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// AncestralSeq builds the ancestral sequence for a stretch of length
// bases starting at physical position offset (0-based). Sites the VCF
// does not mention are invariant in the simulation output, so their
// state carries no information; they are filled with 'A'. Variant
// sites get their ancestral allele. Pass offset 0 for a
// window-rebased VCF.
func AncestralSeq(v *VCF, offset, length int64) []byte {
	s := make([]byte, length)
	for i := range s {
		s[i] = 'A'
	}
	for i := range v.Records {
		rec := &v.Records[i]
		anc := rec.Ancestral()
		if len(anc) != 1 {
			continue
		}
		idx := rec.Pos - 1 - offset
		if idx < 0 || idx >= length {
			continue
		}
		s[idx] = anc[0]
	}
	return s
}

// WriteFasta writes a single-record FASTA with 60-column wrapping.
func WriteFasta(w io.Writer, id string, s []byte) error {
	sq := linear.NewSeq(id, alphabet.BytesToLetters(s), alphabet.DNA)
	fw := fasta.NewWriter(w, 60)
	if _, err := fw.Write(sq); err != nil {
		return fmt.Errorf("writing %s: %w", id, err)
	}
	return nil
}

// WriteFastaFile writes a single-record FASTA file.
func WriteFastaFile(path, id string, s []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteFasta(f, id, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFasta reads the first record of a FASTA stream.
func ReadFasta(r io.Reader) (id string, s []byte, err error) {
	template := &linear.Seq{}
	template.Alpha = alphabet.DNA
	sq, err := fasta.NewReader(r, template).Read()
	if err != nil {
		return "", nil, err
	}
	ls := sq.(*linear.Seq)
	s = make([]byte, ls.Len())
	for i, l := range ls.Seq {
		s[i] = byte(l)
	}
	return ls.Name(), s, nil
}
