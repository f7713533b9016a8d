package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/at-ishikawa/revise/internal/store"
)

var (
	_ pflag.Value = (*kindFlag)(nil)
	_ pflag.Value = (*formatFlag)(nil)
)

type kindFlag struct {
	kind store.Kind
}

func (f *kindFlag) String() string {
	return string(f.kind)
}

func (f *kindFlag) Set(value string) error {
	switch kind := store.Kind(strings.ToLower(value)); kind {
	case store.KindItem, store.KindCard:
		f.kind = kind
		return nil
	default:
		return fmt.Errorf("must be %q or %q", store.KindItem, store.KindCard)
	}
}

func (f *kindFlag) Type() string {
	return "kind"
}

type exportFormat string

const (
	formatYAML exportFormat = "yaml"
	formatPDF  exportFormat = "pdf"
)

type formatFlag struct {
	format exportFormat
}

func (f *formatFlag) String() string {
	return string(f.format)
}

func (f *formatFlag) Set(value string) error {
	switch format := exportFormat(strings.ToLower(value)); format {
	case formatYAML, formatPDF:
		f.format = format
		return nil
	default:
		return fmt.Errorf("must be %q or %q", formatYAML, formatPDF)
	}
}

func (f *formatFlag) Type() string {
	return "format"
}
