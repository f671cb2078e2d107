package fulcrum

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tordrt/fulcrumgen/internal/schema"
)

// ErrMalformedForm is returned when a form document cannot be turned into a schema tree
var ErrMalformedForm = errors.New("fulcrum: malformed form")

type formEnvelope struct {
	Form *formDoc `json:"form"`
}

type formDoc struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Elements      []*elementDoc `json:"elements"`
	GeometryTypes []string      `json:"geometry_types"`
	StatusField   *struct {
		Enabled  bool   `json:"enabled"`
		DataName string `json:"data_name"`
	} `json:"status_field"`
}

type elementDoc struct {
	Type                 string        `json:"type"`
	Key                  string        `json:"key"`
	DataName             string        `json:"data_name"`
	Label                string        `json:"label"`
	Elements             []*elementDoc `json:"elements"`
	AllowOther           bool          `json:"allow_other"`
	AllowMultipleRecords bool          `json:"allow_multiple_records"`
	GeometryTypes        []string      `json:"geometry_types"`
}

// LoadFormFile reads a form definition exported from Fulcrum
func LoadFormFile(path string) (*schema.Form, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open form file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	form, err := DecodeForm(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode form file %s: %w", path, err)
	}
	return form, nil
}

// DecodeForm decodes a form document, either wrapped as {"form": {...}} or bare
func DecodeForm(r io.Reader) (*schema.Form, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var env formEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedForm, err)
	}
	doc := env.Form
	if doc == nil {
		doc = &formDoc{}
		if err := json.Unmarshal(raw, doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedForm, err)
		}
	}
	if doc.Elements == nil {
		return nil, fmt.Errorf("%w: no elements", ErrMalformedForm)
	}

	elements, err := convertElements(doc.Elements)
	if err != nil {
		return nil, err
	}

	form := schema.NewForm(doc.ID, doc.Name, len(doc.GeometryTypes) > 0, elements...)
	if doc.StatusField != nil {
		form.StatusField = schema.StatusField{
			Enabled:  doc.StatusField.Enabled,
			DataName: doc.StatusField.DataName,
		}
	}
	return form, nil
}

func convertElements(docs []*elementDoc) ([]*schema.Element, error) {
	elements := make([]*schema.Element, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			return nil, fmt.Errorf("%w: null element", ErrMalformedForm)
		}

		el := &schema.Element{
			Key:             d.Key,
			Type:            d.Type,
			Kind:            schema.KindFromType(d.Type),
			DataName:        d.DataName,
			Label:           d.Label,
			AllowOther:      d.AllowOther,
			AllowMultiple:   d.AllowMultipleRecords,
			GeometryEnabled: len(d.GeometryTypes) > 0,
		}
		if el.DataName == "" && !el.IsCosmetic() {
			return nil, fmt.Errorf("%w: %s element %q has no data_name", ErrMalformedForm, d.Type, d.Key)
		}

		children, err := convertElements(d.Elements)
		if err != nil {
			return nil, err
		}
		el.Elements = children
		elements = append(elements, el)
	}
	return elements, nil
}
