// Package output renders nrfsctl results as a table, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

type Formatter interface {
	Write(w io.Writer, data any) error
}

// New returns the formatter for format. Unknown formats fall back to a table.
func New(format string) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return jsonFormatter{}
	case "yaml":
		return yamlFormatter{}
	default:
		return tableFormatter{}
	}
}

type tableFormatter struct{}

// Write prints a struct as key/value lines and a slice of structs as rows
// with one column per field.
func (tableFormatter) Write(w io.Writer, data any) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	v := reflect.Indirect(reflect.ValueOf(data))
	switch v.Kind() {
	case reflect.Slice:
		if v.Len() == 0 {
			fmt.Fprintln(tw, "(none)")
			break
		}
		first := reflect.Indirect(v.Index(0))
		if first.Kind() != reflect.Struct {
			for i := 0; i < v.Len(); i++ {
				fmt.Fprintln(tw, v.Index(i).Interface())
			}
			break
		}
		fmt.Fprintln(tw, strings.Join(columns(first.Type()), "\t"))
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintln(tw, strings.Join(cells(reflect.Indirect(v.Index(i))), "\t"))
		}
	case reflect.Struct:
		names := columns(v.Type())
		vals := cells(v)
		for i := range names {
			fmt.Fprintf(tw, "%s:\t%s\n", names[i], vals[i])
		}
	default:
		fmt.Fprintln(tw, data)
	}
	return tw.Flush()
}

func columns(t reflect.Type) []string {
	var out []string
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() {
			out = append(out, strings.ToUpper(t.Field(i).Name))
		}
	}
	return out
}

func cells(v reflect.Value) []string {
	var out []string
	for i := 0; i < v.NumField(); i++ {
		if v.Type().Field(i).IsExported() {
			out = append(out, fmt.Sprintf("%v", v.Field(i).Interface()))
		}
	}
	return out
}

type jsonFormatter struct{}

func (jsonFormatter) Write(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("output: json: %w", err)
	}
	return nil
}

type yamlFormatter struct{}

func (yamlFormatter) Write(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("output: yaml: %w", err)
	}
	return enc.Close()
}
