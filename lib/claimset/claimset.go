// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package claimset

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/sdcwt/lib/sdcwt"
)

// Format is a template syntax.
type Format string

const (
	YAML  Format = "yaml"
	JSONC Format = "jsonc"
)

// FormatOf picks the format from a file extension: .json and .jsonc
// are JSONC, everything else is YAML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return JSONC
	default:
		return YAML
	}
}

// Options supply the values a template may leave out.
type Options struct {
	// Now is the default iat. Zero means the current time.
	Now time.Time
	// Audience is the default aud.
	Audience string
	// Lifetime, when positive, sets a missing exp to iat + Lifetime.
	Lifetime time.Duration
}

// Disclosure is one redacted claim or array element. Index is nil for
// an array element.
type Disclosure struct {
	Index *sdcwt.IntOrText
	Value sdcwt.Value
}

// Template is a loaded template.
type Template struct {
	// Payload holds the visible claims. RedactedKeys is empty until
	// Build adds the digests.
	Payload sdcwt.SdPayload
	// Disclosures are the redacted claims and elements, in template
	// order: claims first, then elements.
	Disclosures []Disclosure
}

// document is the template schema. Maps are kept as nodes so their
// order and key types survive.
type document struct {
	Iss              *string     `yaml:"iss"`
	Sub              *string     `yaml:"sub"`
	Aud              string      `yaml:"aud"`
	Iat              *string     `yaml:"iat"`
	Exp              *string     `yaml:"exp"`
	Nbf              *string     `yaml:"nbf"`
	Cnonce           string      `yaml:"cnonce"`
	Cnf              yaml.Node   `yaml:"cnf"`
	Claims           yaml.Node   `yaml:"claims"`
	Disclose         yaml.Node   `yaml:"disclose"`
	DiscloseElements []yaml.Node `yaml:"disclose_elements"`
}

// LoadFile loads a template from path, choosing the format by
// extension.
func LoadFile(path string, options Options) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	template, err := Parse(data, FormatOf(path), options)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return template, nil
}

// Parse loads a template from data.
func Parse(data []byte, format Format, options Options) (*Template, error) {
	numericKeys := false
	switch format {
	case YAML:
	case JSONC:
		// JSON is YAML, so the stripped document goes through the same
		// decoder.
		data = jsonc.ToJSON(data)
		numericKeys = true
	default:
		return nil, fmt.Errorf("claimset: unknown format %q", format)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var doc document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("claimset: empty template")
		}
		return nil, fmt.Errorf("claimset: %w", err)
	}

	builder := &templateBuilder{numericKeys: numericKeys}
	return builder.build(&doc, options)
}

type templateBuilder struct {
	numericKeys bool
}

func (b *templateBuilder) build(doc *document, options Options) (*Template, error) {
	aud := doc.Aud
	if aud == "" {
		aud = options.Audience
	}
	if aud == "" {
		return nil, fmt.Errorf("claimset: aud is required (set it in the template or issuer.audience)")
	}

	now := options.Now
	if now.IsZero() {
		now = time.Now()
	}
	iat := sdcwt.IntFromInt64(now.Unix())
	if doc.Iat != nil {
		parsed, err := sdcwt.ParseInt(*doc.Iat)
		if err != nil {
			return nil, fmt.Errorf("claimset: iat: %w", err)
		}
		iat = parsed
	}

	payload := sdcwt.NewSdPayload(aud, iat)
	payload.Iss = doc.Iss
	payload.Sub = doc.Sub

	var err error
	if payload.Exp, err = optionalInt("exp", doc.Exp); err != nil {
		return nil, err
	}
	if payload.Nbf, err = optionalInt("nbf", doc.Nbf); err != nil {
		return nil, err
	}
	if payload.Exp == nil && options.Lifetime > 0 {
		seconds, err := iat.Int64()
		if err != nil {
			return nil, fmt.Errorf("claimset: iat out of range for lifetime: %w", err)
		}
		exp := sdcwt.IntFromInt64(seconds + int64(options.Lifetime/time.Second))
		payload.Exp = &exp
	}

	if doc.Cnonce != "" {
		payload.Cnonce, err = hex.DecodeString(doc.Cnonce)
		if err != nil {
			return nil, fmt.Errorf("claimset: cnonce: %w", err)
		}
	}

	moveTagged(doc)
	for _, section := range doc.sections() {
		if stray := strayTag(section.node); stray != nil {
			return nil, fmt.Errorf("claimset: %s: %s at line %d marks neither a claim key nor an element of a claim array",
				section.name, sdTag, stray.Line)
		}
	}

	if !isAbsent(&doc.Cnf) {
		payload.Cnf = sdcwt.NewOrderedMap()
		if err := b.fillMap(payload.Cnf, "cnf", &doc.Cnf); err != nil {
			return nil, err
		}
	}
	if !isAbsent(&doc.Claims) {
		if err := b.fillMap(payload.Custom, "claims", &doc.Claims); err != nil {
			return nil, err
		}
	}

	template := &Template{Payload: payload}
	if !isAbsent(&doc.Disclose) {
		if err := b.addClaimDisclosures(template, &doc.Disclose); err != nil {
			return nil, err
		}
	}
	for index := range doc.DiscloseElements {
		value, err := nodeValue(&doc.DiscloseElements[index])
		if err != nil {
			return nil, fmt.Errorf("claimset: disclose_elements[%d]: %w", index, err)
		}
		template.Disclosures = append(template.Disclosures, Disclosure{Value: value})
	}
	return template, nil
}

// sdTag marks a claim or an array element as disclosed where it is
// written, in place of listing it under disclose or disclose_elements.
const sdTag = "!sd"

// moveTagged moves !sd-tagged keys of the claims map to the front of
// disclose, and !sd-tagged items of the arrays in the claims map to the
// front of disclose_elements, dropping the tag from each.
func moveTagged(doc *document) {
	if doc.Claims.Kind != yaml.MappingNode {
		return
	}
	var claims []*yaml.Node
	var elements []yaml.Node
	kept := make([]*yaml.Node, 0, len(doc.Claims.Content))
	for position := 0; position+1 < len(doc.Claims.Content); position += 2 {
		keyNode, valueNode := doc.Claims.Content[position], doc.Claims.Content[position+1]
		if valueNode.Kind == yaml.SequenceNode {
			items := make([]*yaml.Node, 0, len(valueNode.Content))
			for _, item := range valueNode.Content {
				if item.Tag == sdTag {
					elements = append(elements, *untagged(item))
				} else {
					items = append(items, item)
				}
			}
			valueNode.Content = items
		}
		if keyNode.Tag == sdTag {
			claims = append(claims, untagged(keyNode), valueNode)
		} else {
			kept = append(kept, keyNode, valueNode)
		}
	}
	doc.Claims.Content = kept

	if len(claims) > 0 {
		if isAbsent(&doc.Disclose) {
			doc.Disclose = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Line: doc.Claims.Line}
		}
		doc.Disclose.Content = append(claims, doc.Disclose.Content...)
	}
	if len(elements) > 0 {
		doc.DiscloseElements = append(elements, doc.DiscloseElements...)
	}
}

// untagged returns a copy of node that resolves its tag from the text,
// as if the explicit tag had not been written.
func untagged(node *yaml.Node) *yaml.Node {
	clone := *node
	clone.Tag = ""
	clone.Style &^= yaml.TaggedStyle
	return &clone
}

// strayTag returns the first node at or under node still tagged !sd.
func strayTag(node *yaml.Node) *yaml.Node {
	if node.Tag == sdTag {
		return node
	}
	for _, child := range node.Content {
		if stray := strayTag(child); stray != nil {
			return stray
		}
	}
	return nil
}

type section struct {
	name string
	node *yaml.Node
}

// sections lists the node-valued parts of the template by field name.
func (doc *document) sections() []section {
	sections := []section{
		{"cnf", &doc.Cnf},
		{"claims", &doc.Claims},
		{"disclose", &doc.Disclose},
	}
	for index := range doc.DiscloseElements {
		sections = append(sections, section{fmt.Sprintf("disclose_elements[%d]", index), &doc.DiscloseElements[index]})
	}
	return sections
}

func optionalInt(name string, text *string) (*sdcwt.Int, error) {
	if text == nil {
		return nil, nil
	}
	value, err := sdcwt.ParseInt(*text)
	if err != nil {
		return nil, fmt.Errorf("claimset: %s: %w", name, err)
	}
	return &value, nil
}

func isAbsent(node *yaml.Node) bool {
	return node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null")
}

// fillMap inserts the entries of a mapping node in order.
func (b *templateBuilder) fillMap(target *sdcwt.OrderedMap, section string, node *yaml.Node) error {
	return b.eachEntry(section, node, func(index sdcwt.IntOrText, key sdcwt.Key, label string, value sdcwt.Value) error {
		if err := target.Insert(key, value); err != nil {
			return fmt.Errorf("claimset: %s: %w", section, err)
		}
		return nil
	})
}

func (b *templateBuilder) addClaimDisclosures(template *Template, node *yaml.Node) error {
	seen := map[string]bool{}
	return b.eachEntry("disclose", node, func(index sdcwt.IntOrText, key sdcwt.Key, label string, value sdcwt.Value) error {
		if seen[label] {
			return fmt.Errorf("claimset: disclose: duplicate claim %s", label)
		}
		seen[label] = true
		if _, visible := template.Payload.Custom.Get(key); visible {
			return fmt.Errorf("claimset: claim %s is both visible and disclosed", label)
		}
		template.Disclosures = append(template.Disclosures, Disclosure{Index: &index, Value: value})
		return nil
	})
}

// eachEntry walks a mapping node, converting each key to both claim
// key forms and each value to an encoded Value.
func (b *templateBuilder) eachEntry(section string, node *yaml.Node, visit func(index sdcwt.IntOrText, key sdcwt.Key, label string, value sdcwt.Value) error) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("claimset: %s must be a map (line %d)", section, node.Line)
	}
	for position := 0; position+1 < len(node.Content); position += 2 {
		keyNode, valueNode := node.Content[position], node.Content[position+1]
		index, key, err := b.claimKey(keyNode)
		if err != nil {
			return fmt.Errorf("claimset: %s: %w", section, err)
		}
		label := keyNode.Value
		if keyNode.ShortTag() != "!!int" && !b.isNumeric(keyNode) {
			label = fmt.Sprintf("%q", keyNode.Value)
		}
		value, err := nodeValue(valueNode)
		if err != nil {
			return fmt.Errorf("claimset: %s.%s: %w", section, keyNode.Value, err)
		}
		if err := visit(index, key, label, value); err != nil {
			return err
		}
	}
	return nil
}

var decimalPattern = regexp.MustCompile(`^-?[0-9]+$`)

func (b *templateBuilder) isNumeric(node *yaml.Node) bool {
	return b.numericKeys && node.ShortTag() == "!!str" && decimalPattern.MatchString(node.Value)
}

func (b *templateBuilder) claimKey(node *yaml.Node) (sdcwt.IntOrText, sdcwt.Key, error) {
	if node.Kind != yaml.ScalarNode {
		return sdcwt.IntOrText{}, sdcwt.Key{}, fmt.Errorf("claim key at line %d must be an integer or text", node.Line)
	}
	switch tag := node.ShortTag(); {
	case tag == "!!int" || b.isNumeric(node):
		value, err := sdcwt.ParseInt(node.Value)
		if err != nil {
			return sdcwt.IntOrText{}, sdcwt.Key{}, fmt.Errorf("claim key at line %d: %w", node.Line, err)
		}
		return sdcwt.IntIndex(value), sdcwt.IntKey(value), nil
	case tag == "!!str":
		return sdcwt.TextIndex(node.Value), sdcwt.TextKey(node.Value), nil
	default:
		return sdcwt.IntOrText{}, sdcwt.Key{}, fmt.Errorf("claim key %q at line %d must be an integer or text, got %s", node.Value, node.Line, tag)
	}
}

// nodeValue decodes a YAML value generically and encodes it as CBOR.
func nodeValue(node *yaml.Node) (sdcwt.Value, error) {
	var value any
	if err := node.Decode(&value); err != nil {
		return sdcwt.Value{}, err
	}
	return sdcwt.NewValue(value)
}

// Build draws salts and assembles the unsigned token through issuer.
func (t *Template) Build(issuer *sdcwt.Issuer) (*sdcwt.SdCwt, error) {
	disclosures := make([]sdcwt.Salted, 0, len(t.Disclosures))
	for _, disclosure := range t.Disclosures {
		var salted sdcwt.Salted
		var err error
		if disclosure.Index != nil {
			salted, err = issuer.DiscloseClaim(*disclosure.Index, disclosure.Value)
		} else {
			salted, err = issuer.DiscloseElement(disclosure.Value)
		}
		if err != nil {
			return nil, err
		}
		disclosures = append(disclosures, salted)
	}
	return issuer.Build(t.Payload, disclosures)
}

// MapFromNode converts a YAML or JSON mapping node to an ordered map,
// keeping entry order. numericKeys makes decimal strings integer keys,
// the convention for JSON objects, whose keys are always strings.
func MapFromNode(section string, node *yaml.Node, numericKeys bool) (*sdcwt.OrderedMap, error) {
	result := sdcwt.NewOrderedMap()
	builder := &templateBuilder{numericKeys: numericKeys}
	if err := builder.fillMap(result, section, node); err != nil {
		return nil, err
	}
	return result, nil
}

// IndexFromNode converts a scalar node to a claim index.
func IndexFromNode(node *yaml.Node, numericKeys bool) (sdcwt.IntOrText, error) {
	builder := &templateBuilder{numericKeys: numericKeys}
	index, _, err := builder.claimKey(node)
	return index, err
}

// ValueFromNode encodes any YAML or JSON value node as CBOR.
func ValueFromNode(node *yaml.Node) (sdcwt.Value, error) {
	return nodeValue(node)
}
