// Copyright (C) 2024 MCStream Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command mcspack converts between the mcsjson document format and the
// MCS binary container (spec.md §6): pack turns a JSON document into an
// .mcs file, unpack does the reverse, and info reports a container's
// header and per-chunk accounting without fully materializing it.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mcstream/mcstream"
	"github.com/mcstream/mcstream/compr"
	"github.com/mcstream/mcstream/container"
)

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "    %s pack -i <input.json> -o <output.mcs> [-c none|zstd|lz4|brotli]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "        encode a JSON block document into an MCS container\n")
	fmt.Fprintf(os.Stderr, "    %s unpack -i <input.mcs> -o <output.json>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "        decode an MCS container into a JSON block document\n")
	fmt.Fprintf(os.Stderr, "    %s info -f <input.mcs> [-v]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "        print header and chunk accounting for an MCS container\n")
}

func parseCompression(s string) compr.Algorithm {
	switch s {
	case "none":
		return compr.None
	case "zstd":
		return compr.Zstd
	case "lz4":
		return compr.LZ4
	case "brotli":
		return compr.Brotli
	default:
		exitf("unknown compression %q (want none, zstd, lz4, or brotli)\n", s)
		return compr.None
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "pack":
		runPack(args)
	case "unpack":
		runUnpack(args)
	case "info":
		runInfo(args)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func runPack(args []string) {
	var in, out, comp string
	flags := flag.NewFlagSet("pack", flag.ExitOnError)
	flags.StringVar(&in, "i", "", "input JSON document")
	flags.StringVar(&out, "o", "", "output MCS file")
	flags.StringVar(&comp, "c", "zstd", "compression: none, zstd, lz4, brotli")
	flags.Parse(args)
	if in == "" || out == "" {
		exitf("pack requires both -i and -o\n")
	}

	f, err := os.Open(in)
	if err != nil {
		exitf("opening %s: %s\n", in, err)
	}
	blocks, err := decodeJSONFile(f)
	f.Close()
	if err != nil {
		exitf("decoding %s: %s\n", in, err)
	}

	enc := mcstream.NewEncoder(mcstream.DefaultAirID, parseCompression(comp))
	for i, b := range blocks {
		nbt, err := b.ToNBTBytes()
		if err != nil {
			exitf("block %d: decoding nbt: %s\n", i, err)
		}
		if err := enc.AddBlock(b.ID, b.Pos[0], b.Pos[1], b.Pos[2], nbt); err != nil {
			exitf("block %d: %s\n", i, err)
		}
	}
	if err := enc.WriteToFile(out); err != nil {
		exitf("writing %s: %s\n", out, err)
	}
}

func runUnpack(args []string) {
	var in, out string
	flags := flag.NewFlagSet("unpack", flag.ExitOnError)
	flags.StringVar(&in, "i", "", "input MCS file")
	flags.StringVar(&out, "o", "", "output JSON document")
	flags.Parse(args)
	if in == "" || out == "" {
		exitf("unpack requires both -i and -o\n")
	}

	dec, closer, err := mcstream.OpenFile(in, mcstream.DecodeOptions{})
	if err != nil {
		exitf("opening %s: %s\n", in, err)
	}
	defer closer.Close()

	blocks, err := dec.AllBlocks()
	if err != nil {
		exitf("decoding %s: %s\n", in, err)
	}
	jsonBlocks, err := encodeJSONBlocks(blocks)
	if err != nil {
		exitf("encoding blocks: %s\n", err)
	}

	w, err := os.Create(out)
	if err != nil {
		exitf("creating %s: %s\n", out, err)
	}
	defer w.Close()
	if err := writeJSONDocument(w, jsonBlocks); err != nil {
		exitf("writing %s: %s\n", out, err)
	}
}

func runInfo(args []string) {
	var file string
	var verbose bool
	flags := flag.NewFlagSet("info", flag.ExitOnError)
	flags.StringVar(&file, "f", "", "MCS file to inspect")
	flags.BoolVar(&verbose, "v", false, "print per-chunk accounting")
	flags.Parse(args)
	if file == "" {
		exitf("info requires -f\n")
	}

	dec, closer, err := mcstream.OpenFile(file, mcstream.DecodeOptions{})
	if err != nil {
		exitf("opening %s: %s\n", file, err)
	}
	defer closer.Close()

	h := dec.Header()
	keys := dec.Chunks()
	summaries := make([]container.ChunkSummary, len(keys))
	totalBlocks := 0
	for i, k := range keys {
		s, err := dec.ChunkSummary(k)
		if err != nil {
			exitf("chunk %v: %s\n", k, err)
		}
		summaries[i] = s
		totalBlocks += s.BlockCount
	}

	fmt.Printf("version: %d.%d\n", h.Version.Major, h.Version.Minor)
	fmt.Printf("compression: %s\n", h.Compression)
	fmt.Printf("chunks: %d\n", h.ChunkCount)
	fmt.Printf("blocks: %d\n", totalBlocks)
	fmt.Printf("signed: %v\n", h.Signed())

	if !verbose {
		return
	}
	for i, k := range keys {
		s := summaries[i]
		fmt.Printf("  chunk %v: palette=%d blocks=%d compressed=%d uncompressed=%d bytes\n",
			k, s.PaletteLen, s.BlockCount, s.CompressedLen, s.UncompressedLen)
	}
}
