// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Command exifedit shows, edits and transfers the EXIF metadata of JPEG images.
package main

import (
	"bytes"
	"cmp"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/bep/exifedit"
	"github.com/sirupsen/logrus"
)

const usage = `usage: exifedit <command> [flags]

Commands:
  show         print the metadata of a JPEG image
  transfer     copy the metadata of one JPEG image into another
  strip-gps    remove the GPS metadata from a JPEG image
  export-json  write the metadata of a JPEG image as JSON
  import-json  write metadata from a JSON file into a JPEG image
  set          set one tag from its display text
`

func main() {
	log := logrus.New()
	if err := run(os.Args[1:], os.Stdout, log); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer, log *logrus.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}
	cmd, args := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")

	var c command
	switch cmd {
	case "show":
		c = &showCommand{}
	case "transfer":
		c = &transferCommand{}
	case "strip-gps":
		c = &stripGPSCommand{}
	case "export-json":
		c = &exportJSONCommand{}
	case "import-json":
		c = &importJSONCommand{}
	case "set":
		c = &setCommand{}
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}

	c.flags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	return c.run(&env{stdout: stdout, log: log, args: fs.Args()})
}

type env struct {
	stdout io.Writer
	log    *logrus.Logger
	args   []string
}

func (e *env) warnf(format string, args ...any) {
	e.log.Warnf(format, args...)
}

func (e *env) decode(filename string) (exifedit.DecodeResult, []byte, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return exifedit.DecodeResult{}, nil, err
	}
	e.log.Debugf("decoding %s (%d bytes)", filename, len(b))
	res, err := exifedit.DecodeBytes(b, exifedit.Options{Warnf: e.warnf})
	return res, b, err
}

func (e *env) write(filename string, b []byte) error {
	if err := os.WriteFile(filename, b, 0o644); err != nil {
		return err
	}
	e.log.Infof("wrote %s (%d bytes)", filename, len(b))
	return nil
}

type command interface {
	flags(fs *flag.FlagSet)
	run(e *env) error
}

type showCommand struct {
	in  string
	raw bool
}

func (c *showCommand) flags(fs *flag.FlagSet) {
	fs.StringVar(&c.in, "in", "", "input JPEG")
	fs.BoolVar(&c.raw, "raw", false, "print the encoded tag structure instead of display values")
}

func (c *showCommand) run(e *env) error {
	res, _, err := e.decode(c.in)
	if err != nil {
		return err
	}

	if c.raw {
		raw := exifedit.Converter{Warnf: e.warnf}.ToRawTags(res.Tree, res.Thumbnail)
		for _, ifd := range []exifedit.IFD{exifedit.IFD0, exifedit.IFDExif, exifedit.IFDGPS, exifedit.IFDInterop, exifedit.IFD1} {
			tags := raw.IFDs[ifd]
			for _, code := range slices.Sorted(maps.Keys(tags)) {
				fmt.Fprintf(e.stdout, "%-8s 0x%04x %-28s %v\n", ifd, code, exifedit.TagName(ifd, code), tags[code])
			}
		}
		return nil
	}

	if params := res.Tree.KeyParameters(); len(params) > 0 {
		fmt.Fprintln(e.stdout, "Key parameters")
		for _, p := range params {
			fmt.Fprintf(e.stdout, "  %-28s %s\n", p.Label, p.Display())
		}
	}

	if lat, lng, ok := res.Tree.LatLong(); ok {
		fmt.Fprintf(e.stdout, "Position\n  %.6f, %.6f\n", lat, lng)
	}

	for _, section := range []string{exifedit.SectionImage, exifedit.SectionPhoto, exifedit.SectionGPS, exifedit.SectionInterop, exifedit.SectionThumbnail} {
		fields := res.Tree[section]
		if len(fields) == 0 {
			continue
		}
		fmt.Fprintln(e.stdout, exifedit.TagLabel(section))
		for _, name := range slices.Sorted(maps.Keys(fields)) {
			d := exifedit.Format(name, fields[name])
			fmt.Fprintf(e.stdout, "  %-28s %s\n", exifedit.TagLabel(name), d.Text)
		}
	}

	if len(res.Recipe) > 0 {
		fmt.Fprintln(e.stdout, "Film recipe")
		for _, k := range res.Recipe.Keys() {
			fmt.Fprintf(e.stdout, "  %-28s %s\n", exifedit.RecipeLabel(k), exifedit.FormatRecipeValue(k, res.Recipe[k]).Text)
		}
	}

	if len(res.Thumbnail) > 0 {
		fmt.Fprintf(e.stdout, "Thumbnail\n  %d bytes\n", len(res.Thumbnail))
	}

	return nil
}

type transferCommand struct {
	src, dst, out string
	removeGPS     bool
}

func (c *transferCommand) flags(fs *flag.FlagSet) {
	fs.StringVar(&c.src, "src", "", "JPEG to copy the metadata from")
	fs.StringVar(&c.dst, "dst", "", "JPEG to copy the metadata into")
	fs.StringVar(&c.out, "out", "", "output file (default: overwrite -dst)")
	fs.BoolVar(&c.removeGPS, "remove-gps", false, "do not copy GPS metadata")
}

func (c *transferCommand) run(e *env) error {
	src, err := os.ReadFile(c.src)
	if err != nil {
		return err
	}
	dst, err := os.ReadFile(c.dst)
	if err != nil {
		return err
	}
	b, err := exifedit.Transfer(src, dst, exifedit.TransferOptions{RemoveGPS: c.removeGPS, Warnf: e.warnf})
	if err != nil {
		return err
	}
	return e.write(cmp.Or(c.out, c.dst), b)
}

type stripGPSCommand struct {
	in, out string
}

func (c *stripGPSCommand) flags(fs *flag.FlagSet) {
	fs.StringVar(&c.in, "in", "", "input JPEG")
	fs.StringVar(&c.out, "out", "", "output file (default: overwrite -in)")
}

func (c *stripGPSCommand) run(e *env) error {
	b, err := os.ReadFile(c.in)
	if err != nil {
		return err
	}
	b, err = exifedit.StripGPS(b, exifedit.EncodeOptions{Warnf: e.warnf})
	if err != nil {
		return err
	}
	return e.write(cmp.Or(c.out, c.in), b)
}

type exportJSONCommand struct {
	in, out string
}

func (c *exportJSONCommand) flags(fs *flag.FlagSet) {
	fs.StringVar(&c.in, "in", "", "input JPEG")
	fs.StringVar(&c.out, "out", "", "output JSON file (default: stdout)")
}

func (c *exportJSONCommand) run(e *env) error {
	res, _, err := e.decode(c.in)
	if err != nil {
		return err
	}
	b, err := exifedit.ExportJSON(res.Tree)
	if err != nil {
		return err
	}
	if c.out == "" {
		_, err = e.stdout.Write(append(b, '\n'))
		return err
	}
	return e.write(c.out, b)
}

type importJSONCommand struct {
	json, in, out string
}

func (c *importJSONCommand) flags(fs *flag.FlagSet) {
	fs.StringVar(&c.json, "json", "", "JSON metadata file")
	fs.StringVar(&c.in, "in", "", "JPEG to write the metadata into")
	fs.StringVar(&c.out, "out", "", "output file (default: overwrite -in)")
}

func (c *importJSONCommand) run(e *env) error {
	jb, err := os.ReadFile(c.json)
	if err != nil {
		return err
	}
	tree, err := exifedit.ImportJSON(jb)
	if err != nil {
		return err
	}

	img, err := os.ReadFile(c.in)
	if err != nil {
		return err
	}
	// Keep the thumbnail of the target, JSON carries none.
	var thumbnail []byte
	if res, err := exifedit.DecodeBytes(img, exifedit.Options{Warnf: e.warnf, SkipRecipe: true}); err == nil {
		thumbnail = res.Thumbnail
	}

	b, err := exifedit.WriteTree(img, tree, thumbnail, exifedit.EncodeOptions{Warnf: e.warnf})
	if err != nil {
		return err
	}
	return e.write(cmp.Or(c.out, c.in), b)
}

type setCommand struct {
	in, out, section, tag, value string
}

func (c *setCommand) flags(fs *flag.FlagSet) {
	fs.StringVar(&c.in, "in", "", "input JPEG")
	fs.StringVar(&c.out, "out", "", "output file (default: overwrite -in)")
	fs.StringVar(&c.section, "section", exifedit.SectionPhoto, "tree section, e.g. Image, Photo or GPSInfo")
	fs.StringVar(&c.tag, "tag", "", "tag name, e.g. FNumber")
	fs.StringVar(&c.value, "value", "", `display text of the new value, e.g. "f/4"`)
}

func (c *setCommand) run(e *env) error {
	if c.tag == "" {
		return fmt.Errorf("-tag is required")
	}
	res, img, err := e.decode(c.in)
	if err != nil {
		return err
	}
	orig, _ := res.Tree.Get(c.section, c.tag)
	v, err := exifedit.UnformatE(c.tag, c.value, orig)
	if err != nil {
		return err
	}
	tree := res.Tree.With(c.section, c.tag, v)
	e.log.Infof("%s.%s: %s -> %s", c.section, c.tag,
		quote(exifedit.Format(c.tag, orig).Text), quote(exifedit.Format(c.tag, v).Text))

	b, err := exifedit.WriteTree(img, tree, res.Thumbnail, exifedit.EncodeOptions{Warnf: e.warnf})
	if err != nil {
		return err
	}
	if bytes.Equal(b, img) {
		e.log.Info("no changes")
	}
	return e.write(cmp.Or(c.out, c.in), b)
}

func quote(s string) string {
	if strings.TrimSpace(s) == "" {
		return `""`
	}
	return s
}
