// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bytes"
	"encoding/gob"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/retroenv/retrogolib/log"
)

var helpvar bool
var debugvar bool
var quietvar bool
var outvar string

const usage = "gochip8-asm [-debug] [-out outfile] filename"

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(
		&debugvar, "debug", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'.c8db'",
	)
	flag.BoolVar(&quietvar, "q", false, "Only logs errors")
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
}

// Replaces the extension of path
func withExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// Writes err followed by the offending source line, underlined
func diagnose(w io.Writer, name string, source []byte, err error) {
	tokenErr, ok := err.(assembler.TokenError)

	if !ok {
		fmt.Fprintf(w, "\033[1m%s:\033[0m %s\n", name, err)
		return
	}

	cursor := tokenErr.GetPosition()

	if cursor.LineByte < 0 || cursor.LineByte > int64(len(source)) {
		fmt.Fprintf(w, "\033[1m%s:\033[0m %s\n", name, err)
		return
	}

	line := source[cursor.LineByte:]

	if end := bytes.IndexByte(line, '\n'); end >= 0 {
		line = line[:end]
	}

	size := int(cursor.Size)

	if size < 1 {
		size = 1
	}

	underlinefmt := fmt.Sprintf(
		"%% %ds%s",
		int(cursor.Byte-cursor.LineByte)+1,
		strings.Repeat("~", size-1),
	)

	fmt.Fprintf(
		w,
		"\033[1m%s:\033[0m%s\n%s\n\033[31m%s\033[0m\n",
		name,
		err,
		line,
		fmt.Sprintf(underlinefmt, "^"),
	)
}

func gochip8_asm() int {
	flag.Parse()

	cfg := log.DefaultConfig()

	if quietvar {
		cfg.Level = log.ErrorLevel
	}

	logger := log.NewWithConfig(cfg)

	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var infile string
	var name string
	var source []byte
	var err error

	if stat, _ := os.Stdin.Stat(); len(args) == 0 && stat != nil && stat.Mode()&os.ModeCharDevice == 0 {
		name = "<stdin>"

		if source, err = io.ReadAll(os.Stdin); err != nil {
			logger.Error("Error reading input", log.Err(err))
			return 1
		}

		if outvar == "" {
			outvar = "out.ch8"
		}
	} else {
		if len(args) != 1 {
			logger.Error("usage: " + usage)
			return 1
		}

		infile = args[0]
		name = filepath.Base(infile)

		if stat, err := os.Stat(infile); err != nil {
			logger.Error("Error opening source", log.Err(err))
			return 1
		} else if stat.IsDir() {
			logger.Error(fmt.Sprintf("%s is not a valid CHIP-8 assembly file", name))
			return 1
		}

		if source, err = os.ReadFile(infile); err != nil {
			logger.Error("Error reading source", log.Err(err))
			return 1
		}

		if outvar == "" {
			outvar = withExt(infile, ".ch8")
		}
	}

	var symtable *assembler.SymTable = nil

	if debugvar {
		symtable = assembler.NewSymTable("")

		if infile != "" {
			if symtable.Source, err = filepath.Abs(infile); err != nil {
				logger.Warn("Source path not recorded", log.Err(err))
				symtable.Source = ""
			}
		}
	}

	result, errs := assembler.AssembleSource(bytes.NewReader(source), symtable)

	if len(errs) > 0 {
		for _, err := range errs {
			diagnose(os.Stderr, name, source, err)
		}

		return 1
	}

	if err := os.WriteFile(outvar, result, 0666); err != nil {
		logger.Error("Error writing output file", log.Err(err))
		return 1
	}

	logger.Info(
		"Program assembled",
		log.String("file", outvar),
		log.Int("bytes", len(result)),
	)

	if debugvar {
		filename := withExt(outvar, ".c8db")

		file, err := os.Create(filename)

		if err != nil {
			logger.Error("Error writing symbol file", log.Err(err))
			return 1
		}

		defer file.Close()

		if err := gob.NewEncoder(file).Encode(symtable); err != nil {
			logger.Error("Error writing symbol file", log.Err(err))
			return 1
		}
	}

	return 0
}

func main() {
	os.Exit(gochip8_asm())
}
