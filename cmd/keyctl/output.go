package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/khabaroff/apikeys-dashboard/src/models"
)

// Output formats
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// keyView is the serialized form of a key in CLI output
type keyView struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Key        string     `json:"key" yaml:"key"`
	Type       string     `json:"type" yaml:"type"`
	CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at" yaml:"last_used_at"`
	IsActive   bool       `json:"is_active" yaml:"is_active"`
}

func newKeyView(k *models.APIKey) keyView {
	return keyView{
		ID:         k.ID.String(),
		Name:       k.Name,
		Key:        k.Key,
		Type:       string(k.Type),
		CreatedAt:  k.CreatedAt,
		LastUsedAt: k.LastUsedAt,
		IsActive:   k.IsActive,
	}
}

func checkOutputFormat(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// writeStructured encodes v as JSON or YAML
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// writeKeyTable prints keys with masked secrets
func writeKeyTable(w io.Writer, keys []models.APIKey) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKEY\tTYPE\tCREATED\tLAST USED\tACTIVE")
	for i := range keys {
		k := &keys[i]
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = k.LastUsedAt.Format(time.RFC3339)
		}
		active := "yes"
		if !k.IsActive {
			active = "no"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			k.ID, k.Name, k.Masked(), k.Type, k.CreatedAt.Format(time.RFC3339), lastUsed, active)
	}
	return tw.Flush()
}
